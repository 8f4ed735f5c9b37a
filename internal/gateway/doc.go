// Package gateway はエッジゲートウェイの内部実装を提供する。
//
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線となる。
// 受信したリクエストは次の順序で処理される。
//
//  1. authenticate: Basic認証の資格情報を検証する（401/403）
//  2. gate: パス先頭のサービスIDを解決し、許可リストと照合する（404）
//  3. dispatch: 設定された転送先にリクエストを転送する（502）
//  4. intercept-response: レスポンスボディを記録し、そのまま返す
//
// 転送時はBasic認証の資格情報を取り除き、認証済みユーザーを表す
// 短命の内部IDトークンをBearerトークンとして付与する。
// /actuator/health と /actuator/routes は認証なしで参照できる。
package gateway
