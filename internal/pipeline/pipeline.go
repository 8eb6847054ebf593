package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nao1215/gymnotify/pkg/event"
	"github.com/nao1215/gymnotify/pkg/pushclient"
)

// ErrUserNotFound は指定されたIDのユーザーが存在しないことを表す。
// Storeの実装はユーザー不在をこのエラーで返す。
var ErrUserNotFound = errors.New("ユーザーが見つかりません")

// ErrPersistenceFailed は通知レコードを1件も永続化できなかったことを表す。
// このエラーを受けたイベントソースはイベントを再配信してよい。
var ErrPersistenceFailed = errors.New("通知レコードの永続化に失敗しました")

// User は通知の受信者となるユーザー。周辺アプリケーションが所有するレコードを
// 読み取り専用で参照する。
type User struct {
	// ID はユーザーの一意識別子。
	ID string
	// FullName はユーザーの表示名。
	FullName string
	// Role はユーザーの役割（client/staff/manager/admin）。
	Role string
	// PushToken はデバイスのプッシュトークン。未登録の場合は空文字列。
	PushToken string
}

// Notification は受信者ごとに永続化される通知レコード。
type Notification struct {
	// ID は通知の一意識別子（UUID）。
	ID string
	// RecipientID は通知先のユーザーID。
	RecipientID string
	// Title は通知のタイトル。
	Title string
	// Message は通知メッセージ。
	Message string
	// Category は通知の発生源となったイベント分類。
	Category event.Category
	// DedupeKey は再配信時の重複挿入を抑止するキー。導出できない場合は空文字列。
	DedupeKey string
	// pushToken は受信者のプッシュトークン。ペイロード構築まで引き回すが永続化はしない。
	pushToken string
}

// Store はパイプラインが依存する永続ストアの操作。
// 実装をテスト用フェイクに差し替えられるよう、利用側で定義する。
type Store interface {
	// FindUserByID は指定IDのユーザーを返す。不在の場合はErrUserNotFoundを返す。
	FindUserByID(ctx context.Context, id string) (*User, error)
	// FindUsersByRole は指定された役割のいずれかを持つ全ユーザーを返す。
	// 役割の所属は呼び出し時点の状態を反映し、キャッシュしてはならない。
	FindUsersByRole(ctx context.Context, roles []string) ([]User, error)
	// InsertNotification は通知レコードを1件挿入する。
	// 重複排除キーにより挿入が抑止された場合は(false, nil)を返す。
	InsertNotification(ctx context.Context, n *Notification) (bool, error)
}

// Gateway はプッシュゲートウェイへの送信操作。
// *pushclient.Client がこのインターフェースを満たす。
type Gateway interface {
	// SendBatch は複数メッセージを1リクエストで送信する。
	SendBatch(ctx context.Context, messages []pushclient.Message) ([]pushclient.Ticket, error)
	// Send は1メッセージを単独リクエストで送信する。
	Send(ctx context.Context, message pushclient.Message) (*pushclient.Ticket, error)
}

const (
	// StatusDispatched は通知の永続化（および必要に応じたプッシュ送信）を行ったことを表す。
	StatusDispatched = "dispatched"
	// StatusNoAction は処理対象外のイベントで何も行わなかったことを表す。
	StatusNoAction = "no action"
)

// Result は1イベントの処理結果。部分失敗の件数を呼び出し元に開示する。
type Result struct {
	// Category はイベントの分類。
	Category event.Category `json:"category"`
	// Status は処理結果（"dispatched" または "no action"）。
	Status string `json:"status"`
	// Persisted は永続化に成功した通知レコード数。
	Persisted int `json:"persisted"`
	// PersistFailed は永続化に失敗した通知レコード数。
	PersistFailed int `json:"persist_failed"`
	// Deduplicated は重複排除キーにより挿入を抑止した件数。
	Deduplicated int `json:"deduplicated"`
	// Pushed はゲートウェイに受理されたプッシュメッセージ数。
	Pushed int `json:"pushed"`
	// PushFailed はプッシュ配信に失敗した件数。インアプリ通知の有効性には影響しない。
	PushFailed int `json:"push_failed"`
	// PushSkipped はトークン未登録によりプッシュを構築しなかった受信者数。
	PushSkipped int `json:"push_skipped"`
}

// Config はパイプラインの動作設定。
type Config struct {
	// BatchSend はゲートウェイへのバッチ送信を使用するかどうか。
	// falseの場合はメッセージごとに個別リクエストを送信する。
	BatchSend bool
	// StoreTimeout はストア操作1回あたりのタイムアウト。
	StoreTimeout time.Duration
	// PushTimeout はゲートウェイ送信のタイムアウト。
	PushTimeout time.Duration
}

// Pipeline は変更イベントを受け取り、通知レコードの永続化とプッシュ配信を行う。
// 起動間で共有する可変状態を持たず、無関係なイベントは並行に処理してよい。
type Pipeline struct {
	// store は永続ストアへの操作。
	store Store
	// gateway はプッシュゲートウェイへの送信操作。
	gateway Gateway
	// logger はサービス共通のロガー。
	logger *logrus.Logger
	// batchSend はバッチ送信を使用するかどうか。
	batchSend bool
	// storeTimeout はストア操作のタイムアウト。
	storeTimeout time.Duration
	// pushTimeout はゲートウェイ送信のタイムアウト。
	pushTimeout time.Duration
}

// New は新しいパイプラインを生成する。
// タイムアウトが未指定の場合は10秒を使用する。
func New(store Store, gateway Gateway, logger *logrus.Logger, cfg Config) *Pipeline {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 10 * time.Second
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = 10 * time.Second
	}
	return &Pipeline{
		store:        store,
		gateway:      gateway,
		logger:       logger,
		batchSend:    cfg.BatchSend,
		storeTimeout: cfg.StoreTimeout,
		pushTimeout:  cfg.PushTimeout,
	}
}

// Process は1件の変更イベントを完了または失敗まで処理する。
//
// 分類がUnhandledの場合と、直接通知の宛先ユーザーが存在しない場合は、
// 何もせずStatusNoActionの結果を返す（エラーにはしない）。
// 永続化の部分失敗は成功した行の処理を妨げず、件数としてResultに報告する。
// 1件も永続化できなかった場合のみErrPersistenceFailedを返し、
// イベントソースに再配信を促す。プッシュ配信の失敗は永続化済みの
// 通知レコードを無効にしない（インアプリ通知が正）。
func (p *Pipeline) Process(ctx context.Context, ev *event.ChangeEvent) (*Result, error) {
	category := event.Classify(ev)
	result := &Result{Category: category, Status: StatusNoAction}

	if category == event.CategoryUnhandled {
		p.logger.WithFields(logrus.Fields{
			"source_entity": ev.SourceEntity,
			"operation":     ev.Operation,
		}).Debug("通知ルールのないイベントのためスキップします")
		return result, nil
	}

	res, err := p.resolveRecipients(ctx, category, ev)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// 宛先不明の直接通知はログに記録してイベントを破棄する
			p.logger.WithFields(logrus.Fields{
				"category":     category,
				"recipient_id": ev.RecordString("user_id"),
			}).Warn("宛先ユーザーが存在しないためイベントを破棄します")
			return result, nil
		}
		return nil, fmt.Errorf("受信者の解決に失敗: %w", err)
	}

	if len(res.recipients) == 0 {
		p.logger.WithField("category", category).Info("通知対象の受信者が存在しません")
		return result, nil
	}

	title, message := buildContent(category, ev, res.staffName)
	persisted := p.persist(ctx, category, ev, res.recipients, title, message, result)
	if len(persisted) == 0 {
		if result.Deduplicated > 0 {
			// 全行が重複排除された再配信イベント。プッシュ済みとみなして何もしない。
			return result, nil
		}
		return nil, fmt.Errorf("%w: failed=%d", ErrPersistenceFailed, result.PersistFailed)
	}
	result.Status = StatusDispatched

	messages := buildPushMessages(category, ev, persisted, result)
	p.dispatch(ctx, messages, result)

	p.logger.WithFields(logrus.Fields{
		"category":       category,
		"persisted":      result.Persisted,
		"persist_failed": result.PersistFailed,
		"pushed":         result.Pushed,
		"push_failed":    result.PushFailed,
		"push_skipped":   result.PushSkipped,
	}).Info("イベントの処理が完了しました")

	return result, nil
}
