// Package httpclient はサービス間のHTTP通信を行うクライアントを提供する。
//
// webapiサービスがitems-serviceやreviews-serviceのAPIを呼び出す際に使用する。
// リクエストIDやユーザーIDなどの相関情報はコンテキストから自動的に
// ヘッダーへ伝播される。
package httpclient
