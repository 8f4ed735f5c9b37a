// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// ゲートウェイが発行する内部IDトークンの検証、リクエストIDの付与、
// アクセスログ、パニックリカバリ、CORS設定など、全サービスで共通して使用する
// ミドルウェアを含む。
package middleware
