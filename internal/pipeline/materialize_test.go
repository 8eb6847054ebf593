package pipeline

import (
	"testing"

	"github.com/nao1215/gymnotify/pkg/event"
)

// TestBuildContent は分類ごとの通知文面の生成を検証する。
func TestBuildContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		category    event.Category
		ev          *event.ChangeEvent
		staffName   string
		wantTitle   string
		wantMessage string
	}{
		{
			name:     "売上イベントはスタッフ名・商品名・金額を含む文面になること",
			category: event.CategorySaleCreated,
			ev: &event.ChangeEvent{
				SourceEntity: "sales",
				Operation:    event.OperationInsert,
				Record: map[string]any{
					"product_name": "Protein Powder",
					"amount":       float64(35),
				},
			},
			staffName:   "Alice Smith",
			wantTitle:   "💰 New Sale Made!",
			wantMessage: "Alice Smith just sold a Protein Powder for $35.",
		},
		{
			name:     "小数の金額も正しく文面に含まれること",
			category: event.CategorySaleCreated,
			ev: &event.ChangeEvent{
				SourceEntity: "sales",
				Operation:    event.OperationInsert,
				Record: map[string]any{
					"product_name": "Daily Pass",
					"amount":       float64(5.5),
				},
			},
			staffName:   "Bob",
			wantTitle:   "💰 New Sale Made!",
			wantMessage: "Bob just sold a Daily Pass for $5.5.",
		},
		{
			name:     "直接通知はレコードのタイトルと本文をそのまま使うこと",
			category: event.CategoryDirectNotificationCreated,
			ev: &event.ChangeEvent{
				SourceEntity: "notifications",
				Operation:    event.OperationInsert,
				Record: map[string]any{
					"title":   "Membership Expiring",
					"message": "Your membership expires soon.",
				},
			},
			wantTitle:   "Membership Expiring",
			wantMessage: "Your membership expires soon.",
		},
		{
			name:     "タイトルのない直接通知はデフォルトタイトルになること",
			category: event.CategoryDirectNotificationCreated,
			ev: &event.ChangeEvent{
				SourceEntity: "notifications",
				Operation:    event.OperationInsert,
				Record: map[string]any{
					"message": "Hello.",
				},
			},
			wantTitle:   "Gym Update",
			wantMessage: "Hello.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			title, message := buildContent(tt.category, tt.ev, tt.staffName)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if message != tt.wantMessage {
				t.Errorf("message = %q, want %q", message, tt.wantMessage)
			}
		})
	}
}

// TestDedupeKey は重複排除キーの導出を検証する。
func TestDedupeKey(t *testing.T) {
	t.Parallel()

	t.Run("idを持つレコードはエンティティ・レコードid・受信者idの組になること", func(t *testing.T) {
		t.Parallel()
		ev := &event.ChangeEvent{
			SourceEntity: "sales",
			Operation:    event.OperationInsert,
			Record:       map[string]any{"id": "sale-1"},
		}
		if got := dedupeKey(ev, "M1"); got != "sales:sale-1:M1" {
			t.Errorf("dedupeKey = %q, want %q", got, "sales:sale-1:M1")
		}
	})

	t.Run("idを持たないレコードは空文字列になること", func(t *testing.T) {
		t.Parallel()
		ev := &event.ChangeEvent{
			SourceEntity: "sales",
			Operation:    event.OperationInsert,
			Record:       map[string]any{},
		}
		if got := dedupeKey(ev, "M1"); got != "" {
			t.Errorf("dedupeKey = %q, want 空文字列", got)
		}
	})
}
