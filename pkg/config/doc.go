// Package config はゲートウェイとwebapiの設定読み込みを提供する。
//
// 設定値は次の優先順位で決定される（上ほど優先）。
//
//   - 明示的に指定されたコマンドラインフラグ
//   - 環境変数（ゲートウェイは GATEWAY_、webapiは WEBAPI_ プレフィックス）
//   - YAML設定ファイル
//   - デフォルト値
//
// 読み込んだ設定はgo-playground/validatorで検証される。
// 設定は起動時に一度だけ読み込み、各コンストラクタへ値として渡す。
package config
