package notifier

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。db/schema.sql と同期すること。
const schema = `
CREATE TABLE IF NOT EXISTS users (
    -- ユーザーの一意識別子
    id TEXT PRIMARY KEY,
    -- ユーザーの表示名
    full_name TEXT NOT NULL DEFAULT '',
    -- ユーザーの役割（client/staff/manager/admin）
    role TEXT NOT NULL,
    -- デバイスのプッシュトークン。未登録はNULL
    expo_push_token TEXT
);

-- 役割による受信者解決を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_users_role
    ON users(role);

CREATE TABLE IF NOT EXISTS notifications (
    -- 通知の一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- 通知先のユーザーID
    user_id TEXT NOT NULL,
    -- 通知のタイトル
    title TEXT NOT NULL,
    -- 通知メッセージ
    message TEXT NOT NULL,
    -- 発生源イベントの分類
    category TEXT NOT NULL,
    -- 再配信時の重複挿入を抑止するキー。導出できない場合はNULL
    dedupe_key TEXT UNIQUE,
    -- 通知の既読状態
    is_read INTEGER NOT NULL DEFAULT 0,
    -- 通知の作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

-- ユーザーIDでの検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_notifications_user_id
    ON notifications(user_id);

-- 未読通知の検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_notifications_unread
    ON notifications(user_id, is_read) WHERE is_read = 0;
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
