package pipeline

import (
	"github.com/nao1215/gymnotify/pkg/event"
	"github.com/nao1215/gymnotify/pkg/pushclient"
)

const (
	// screenSales は売上通知のタップ時に開く画面。
	screenSales = "Sales"
	// screenSubscription はサブスクリプション警告のタップ時に開く画面。
	screenSubscription = "Subscription"
	// screenNotifications は既定の通知一覧画面。
	screenNotifications = "Notifications"

	// subtypeSubscriptionAlert はサブスクリプション警告を表す直接通知のサブタイプ。
	subtypeSubscriptionAlert = "subscription_alert"
)

// routingScreen はイベント分類から画面遷移ヒントを導出する固定の写像。
// 直接通知は発生源レコードのサブタイプ（typeフィールド）で分岐し、
// 未知のサブタイプは通知一覧画面に送る。
func routingScreen(category event.Category, ev *event.ChangeEvent) string {
	switch category {
	case event.CategorySaleCreated:
		return screenSales
	case event.CategoryDirectNotificationCreated:
		if ev.RecordString("type") == subtypeSubscriptionAlert {
			return screenSubscription
		}
		return screenNotifications
	default:
		return screenNotifications
	}
}

// buildPushMessages は永続化済みの通知からプッシュメッセージを構築する純粋な変換。
//
// プッシュトークンを持たない受信者はエラーにせずスキップし、件数をresultに
// 報告する（インアプリ通知は既に永続化済みのため配信は成立している）。
func buildPushMessages(category event.Category, ev *event.ChangeEvent, persisted []Notification, result *Result) []pushclient.Message {
	screen := routingScreen(category, ev)

	messages := make([]pushclient.Message, 0, len(persisted))
	for _, n := range persisted {
		if n.pushToken == "" {
			result.PushSkipped++
			continue
		}

		msg := pushclient.Message{
			To:    n.pushToken,
			Title: n.Title,
			Body:  n.Message,
			Sound: "default",
			Data:  map[string]string{"screen": screen},
		}
		if category == event.CategoryDirectNotificationCreated {
			msg.Priority = "high"
			if subtype := ev.RecordString("type"); subtype != "" {
				msg.Data["type"] = subtype
			}
		}
		messages = append(messages, msg)
	}
	return messages
}
