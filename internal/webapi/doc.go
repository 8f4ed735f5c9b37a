// Package webapi は集約Web APIサービスの内部実装を提供する。
//
// 1つのリクエストをitemsサービスとreviewsサービスへの呼び出しに展開し、
// 結果をアイテムとレビューの組として返す。どちらかのバックエンドが
// 失敗してもリクエスト全体は失敗させず、設定されたフォールバック値で応答する。
//
// ゲートウェイが付与した内部IDトークンを検証し、ユーザーIDとリクエストIDを
// バックエンドへの呼び出しに伝播する。
package webapi
