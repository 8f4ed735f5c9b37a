// Package logging は全サービス共通の構造化ログ設定を提供する。
//
// log/slog をベースに、開発環境ではtintによる色付きテキスト、
// 本番環境ではJSON形式でログを出力する。
package logging
