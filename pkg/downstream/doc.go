// Package downstream はバックエンドサービスの1機能を呼び出す型付きクライアントを提供する。
//
// 呼び出しは必ず Ok / Fallback / Failed のいずれかの Result に解決される。
// 接続失敗・タイムアウト・2xx以外の応答はエラーとして呼び出し元に返さず、
// 設定されたフォールバック値に置き換える。呼び出し元のコンテキストが
// キャンセルされた場合のみ Failed となる。
package downstream
