// Package auth はゲートウェイの認証方式を提供する。
//
// 認証方式は open（常に成功）と local（資格情報ディレクトリとbcryptで照合）の
// 2種類のみで、起動時の設定で1つを選ぶ。
package auth
