package notifier

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nao1215/gymnotify/internal/notifier/db"
	"github.com/nao1215/gymnotify/internal/pipeline"
)

// store はpipeline.StoreのSQLite実装。sqlc生成のクエリをパイプラインの型に橋渡しする。
type store struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *db.Queries
}

// newStore は新しいストアアダプタを生成する。
func newStore(queries *db.Queries) *store {
	return &store{queries: queries}
}

// FindUserByID は指定IDのユーザーを返す。不在の場合はpipeline.ErrUserNotFoundを返す。
func (s *store) FindUserByID(ctx context.Context, id string) (*pipeline.User, error) {
	u, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pipeline.ErrUserNotFound
		}
		return nil, err
	}
	user := toPipelineUser(u)
	return &user, nil
}

// FindUsersByRole は指定された役割のいずれかを持つ全ユーザーを返す。
func (s *store) FindUsersByRole(ctx context.Context, roles []string) ([]pipeline.User, error) {
	rows, err := s.queries.ListUsersByRoles(ctx, roles)
	if err != nil {
		return nil, err
	}
	users := make([]pipeline.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toPipelineUser(row))
	}
	return users, nil
}

// InsertNotification は通知レコードを1件挿入する。
// 重複排除キーの衝突で挿入が抑止された場合は(false, nil)を返す。
func (s *store) InsertNotification(ctx context.Context, n *pipeline.Notification) (bool, error) {
	dedupeKey := sql.NullString{String: n.DedupeKey, Valid: n.DedupeKey != ""}
	affected, err := s.queries.CreateNotification(ctx, db.CreateNotificationParams{
		ID:        n.ID,
		UserID:    n.RecipientID,
		Title:     n.Title,
		Message:   n.Message,
		Category:  string(n.Category),
		DedupeKey: dedupeKey,
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// toPipelineUser はDB行をパイプラインのユーザー型に変換する。
func toPipelineUser(u db.User) pipeline.User {
	return pipeline.User{
		ID:        u.ID,
		FullName:  u.FullName,
		Role:      u.Role,
		PushToken: u.ExpoPushToken.String,
	}
}
