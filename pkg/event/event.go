package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedEvent は変更イベントのペイロードが形式不正であることを表す。
// このエラーは恒久的な失敗であり、イベントソースは再配信すべきではない。
var ErrMalformedEvent = errors.New("変更イベントのペイロードが不正です")

// Operation は監視対象エンティティに対するCRUD操作の種類を表す。
type Operation string

const (
	// OperationInsert はレコードの新規作成を表す。
	OperationInsert Operation = "Insert"
	// OperationUpdate はレコードの更新を表す。
	OperationUpdate Operation = "Update"
	// OperationDelete はレコードの削除を表す。
	OperationDelete Operation = "Delete"
)

// ParseOperation は文字列をOperationに変換する。
// Supabase Webhook形式（"INSERT"等の大文字）も受け付けるため、大文字小文字は区別しない。
func ParseOperation(s string) (Operation, bool) {
	switch strings.ToLower(s) {
	case "insert":
		return OperationInsert, true
	case "update":
		return OperationUpdate, true
	case "delete":
		return OperationDelete, true
	default:
		return "", false
	}
}

// ChangeEvent は監視対象エンティティの変更通知を表す。
// 変更後のレコードスナップショットを保持し、1回の起動で1イベントだけ消費される。
type ChangeEvent struct {
	// SourceEntity は変更が発生したエンティティ（テーブル）名。
	SourceEntity string
	// Operation は変更の種類（Insert/Update/Delete）。
	Operation Operation
	// Record は変更後のレコードスナップショット。
	Record map[string]any
}

// payload は変更イベントの受信用JSON構造。
type payload struct {
	// Operation は変更の種類を表す文字列。
	Operation string `json:"operation"`
	// SourceEntity は変更が発生したエンティティ名。
	SourceEntity string `json:"sourceEntity"`
	// Record は変更後のレコードスナップショット。
	Record map[string]any `json:"record"`
}

// Decode は生のイベントペイロードを検証し、型付きのChangeEventに変換する。
// sourceEntity・operation・recordのいずれかが欠落または形式不正の場合は
// ErrMalformedEventを返す。検証以外の副作用は持たない。
func Decode(data []byte) (*ChangeEvent, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: JSONのデコードに失敗: %v", ErrMalformedEvent, err)
	}

	if p.SourceEntity == "" {
		return nil, fmt.Errorf("%w: sourceEntityがありません", ErrMalformedEvent)
	}
	if p.Record == nil {
		return nil, fmt.Errorf("%w: recordがありません", ErrMalformedEvent)
	}
	op, ok := ParseOperation(p.Operation)
	if !ok {
		return nil, fmt.Errorf("%w: operationが不正です: %q", ErrMalformedEvent, p.Operation)
	}

	return &ChangeEvent{
		SourceEntity: p.SourceEntity,
		Operation:    op,
		Record:       p.Record,
	}, nil
}

// RecordString はレコードの指定フィールドを文字列として取り出す。
// JSON数値（float64）は人間が読める形式に変換する。フィールドが存在しないか
// 文字列・数値以外の場合は空文字列を返す。
func (e *ChangeEvent) RecordString(key string) string {
	switch v := e.Record[key].(type) {
	case string:
		return v
	case float64:
		// 35.0 は "35"、35.5 は "35.5" になる
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// RecordID はレコード自身のid フィールドを文字列として返す。
// 重複排除キーの導出に使用する。idを持たないレコードでは空文字列を返す。
func (e *ChangeEvent) RecordID() string {
	return e.RecordString("id")
}
