package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/gymnotify/pkg/event"
)

const (
	// saleTitle は売上通知のタイトル。
	saleTitle = "💰 New Sale Made!"
	// directTitleFallback はタイトルを持たない直接通知のデフォルトタイトル。
	directTitleFallback = "Gym Update"
)

// buildContent はイベント分類と解決時に収集した文脈から通知のタイトルと本文を
// 決定的に生成する。同じ入力からは常に同じ文面が得られる。
func buildContent(category event.Category, ev *event.ChangeEvent, staffName string) (title, message string) {
	switch category {
	case event.CategorySaleCreated:
		title = saleTitle
		message = fmt.Sprintf("%s just sold a %s for $%s.",
			staffName, ev.RecordString("product_name"), ev.RecordString("amount"))
	case event.CategoryDirectNotificationCreated:
		title = ev.RecordString("title")
		if title == "" {
			title = directTitleFallback
		}
		message = ev.RecordString("message")
	}
	return title, message
}

// dedupeKey は(イベント, 受信者)の組から重複排除キーを導出する。
// 発生源レコードがidを持たない場合は空文字列を返し、重複排除は行われない。
func dedupeKey(ev *event.ChangeEvent, recipientID string) string {
	recordID := ev.RecordID()
	if recordID == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", ev.SourceEntity, recordID, recipientID)
}

// persist は受信者ごとの通知レコードを構築し、ストアに書き込む。
//
// 行単位で挿入するため、一部の行の失敗は成功した行を妨げない。
// 失敗した行は件数としてresultに報告し、成功した行のみを返す。
// 戻り値の通知は続くプッシュペイロード構築の入力になる。
func (p *Pipeline) persist(ctx context.Context, category event.Category, ev *event.ChangeEvent, recipients []User, title, message string, result *Result) []Notification {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	persisted := make([]Notification, 0, len(recipients))
	for _, recipient := range recipients {
		n := Notification{
			ID:          uuid.New().String(),
			RecipientID: recipient.ID,
			Title:       title,
			Message:     message,
			Category:    category,
			DedupeKey:   dedupeKey(ev, recipient.ID),
			pushToken:   recipient.PushToken,
		}

		inserted, err := p.store.InsertNotification(ctx, &n)
		if err != nil {
			result.PersistFailed++
			p.logger.WithFields(logrus.Fields{
				"recipient_id": recipient.ID,
				"category":     category,
			}).WithError(err).Error("通知レコードの挿入に失敗しました")
			continue
		}
		if !inserted {
			// 再配信イベントの重複行。挿入もプッシュも行わない。
			result.Deduplicated++
			continue
		}

		result.Persisted++
		persisted = append(persisted, n)
	}
	return persisted
}
