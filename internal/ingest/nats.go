// Package ingest はNATS経由のデータベース変更イベント購読を提供する。
// HTTPの /events エンドポイントと同じパイプラインへイベントを流し込む。
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/gymnotify/internal/pipeline"
	"github.com/nao1215/gymnotify/pkg/event"
)

// Processor はイベントを処理するパイプラインのインターフェース。
type Processor interface {
	// Process はイベントを処理し、処理結果を返す。
	Process(ctx context.Context, ev *event.ChangeEvent) (*pipeline.Result, error)
}

// Subscriber はNATSのサブジェクトを購読し、受信イベントをパイプラインへ渡す。
type Subscriber struct {
	conn      *nats.Conn
	subject   string
	processor Processor
	logger    *logrus.Logger
	sub       *nats.Subscription

	// processTimeout は1イベントあたりの処理時間上限。
	processTimeout time.Duration
}

// NewSubscriber はNATSへ接続し、Subscriberを生成する。
func NewSubscriber(url, subject string, maxReconnect int, processor Processor, logger *logrus.Logger) (*Subscriber, error) {
	opts := []nats.Option{
		nats.MaxReconnects(maxReconnect),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warnf("NATS切断: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("NATS再接続: %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Warn("NATS接続がクローズされた")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("NATSへの接続に失敗: %w", err)
	}

	logger.Infof("NATSへ接続: %s", url)

	return &Subscriber{
		conn:           conn,
		subject:        subject,
		processor:      processor,
		logger:         logger,
		processTimeout: 30 * time.Second,
	}, nil
}

// Subscribe はサブジェクトの購読を開始する。
// メッセージごとにhandleMessageが呼ばれる。
func (s *Subscriber) Subscribe() error {
	sub, err := s.conn.Subscribe(s.subject, s.handleMessage)
	if err != nil {
		return fmt.Errorf("サブジェクト %s の購読に失敗: %w", s.subject, err)
	}
	s.sub = sub
	s.logger.Infof("サブジェクト %s の購読を開始", s.subject)
	return nil
}

// handleMessage は受信メッセージをデコードしてパイプラインへ渡す。
// 形式不正なメッセージは警告ログを出して破棄する。再配信はNATS側に任せ、
// ここでは再試行しない。
func (s *Subscriber) handleMessage(msg *nats.Msg) {
	ev, err := event.Decode(msg.Data)
	if err != nil {
		s.logger.WithError(err).Warn("形式不正なイベントを破棄")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.processTimeout)
	defer cancel()

	result, err := s.processor.Process(ctx, ev)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"source_entity": ev.SourceEntity,
			"operation":     ev.Operation,
		}).Error("イベントの処理に失敗")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"source_entity": ev.SourceEntity,
		"status":        result.Status,
		"persisted":     result.Persisted,
		"pushed":        result.Pushed,
	}).Debug("NATSイベントを処理")
}

// Close は購読を解除し、NATS接続をクローズする。
func (s *Subscriber) Close() {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.WithError(err).Warn("購読解除に失敗")
		}
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
