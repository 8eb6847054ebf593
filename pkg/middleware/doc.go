// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 通知閲覧APIのJWT認証トークンの検証と、パニックリカバリを含む。
package middleware
