// Package notifier は通知ファンアウトサービスの内部実装を提供する。
//
// 変更イベントをHTTPで受け取り、分類・受信者解決・通知レコードの永続化・
// プッシュ配信を行うパイプラインを駆動する。受信者向けの通知一覧取得や
// 既読管理のAPIも提供する。
package notifier
