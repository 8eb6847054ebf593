package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/gymnotify/pkg/event"
)

// notifyRoles は売上イベントの通知対象となる役割。
var notifyRoles = []string{"manager", "admin"}

// staffNameFallback はスタッフ名を解決できなかった場合の表示名。
const staffNameFallback = "Staff"

// resolution は受信者解決の結果。受信者集合とメッセージ生成用の文脈を持つ。
type resolution struct {
	// recipients は通知を受け取るユーザーの集合。順序に意味はない。
	recipients []User
	// staffName は売上を記録したスタッフの表示名。売上イベントのみ設定される。
	staffName string
}

// resolveRecipients はイベント分類に応じて受信者集合を解決する。
//
//   - SaleCreated: 売上を記録したスタッフの表示名を取得した上で、
//     役割がmanagerまたはadminの全ユーザーを返す。該当者がいなければ空集合を返す。
//   - DirectNotificationCreated: レコードが指名する単一ユーザーを解決する。
//     ユーザーが存在しない場合はErrUserNotFoundを返す。
//
// 役割の所属は毎回ストアから読み直し、起動間でキャッシュしない。
func (p *Pipeline) resolveRecipients(ctx context.Context, category event.Category, ev *event.ChangeEvent) (*resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	switch category {
	case event.CategorySaleCreated:
		return p.resolveSaleRecipients(ctx, ev)
	case event.CategoryDirectNotificationCreated:
		return p.resolveDirectRecipient(ctx, ev)
	default:
		return &resolution{}, nil
	}
}

// resolveSaleRecipients は売上イベントの受信者（管理者層）を解決する。
func (p *Pipeline) resolveSaleRecipients(ctx context.Context, ev *event.ChangeEvent) (*resolution, error) {
	staffName := staffNameFallback
	if staffID := ev.RecordString("staff_id"); staffID != "" {
		staff, err := p.store.FindUserByID(ctx, staffID)
		switch {
		case errors.Is(err, ErrUserNotFound):
			// スタッフが見つからなくてもフォールバック名で通知は続行する
		case err != nil:
			return nil, fmt.Errorf("スタッフの検索に失敗: %w", err)
		case staff.FullName != "":
			staffName = staff.FullName
		}
	}

	recipients, err := p.store.FindUsersByRole(ctx, notifyRoles)
	if err != nil {
		return nil, fmt.Errorf("管理者層ユーザーの検索に失敗: %w", err)
	}

	return &resolution{recipients: recipients, staffName: staffName}, nil
}

// resolveDirectRecipient は直接通知イベントの単一受信者を解決する。
func (p *Pipeline) resolveDirectRecipient(ctx context.Context, ev *event.ChangeEvent) (*resolution, error) {
	recipientID := ev.RecordString("user_id")
	if recipientID == "" {
		return nil, fmt.Errorf("直接通知の宛先解決に失敗: %w", ErrUserNotFound)
	}

	user, err := p.store.FindUserByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("宛先ユーザーの検索に失敗: %w", err)
	}

	return &resolution{recipients: []User{*user}}, nil
}
