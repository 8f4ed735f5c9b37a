// エッジゲートウェイのエントリポイント。
// 認証、許可リストによるルーティング制御、バックエンドへの転送を担当する。
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線となる。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/edgegate/pkg/config"
	"github.com/nao1215/edgegate/pkg/logging"
)

var version = "dev"

// configKey はコマンドのコンテキストに設定を格納するキー。
type configKey struct{}

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "gateway",
	Short:   "認証と許可リストによるルーティング制御を行うエッジゲートウェイ",
	Long: `gatewayは受信したリクエストを認証し、パス先頭のサービスIDが
許可リストに含まれる場合のみ設定された転送先に転送する。

設定は gateway.yaml、GATEWAY_ プレフィックスの環境変数、フラグから読み込む。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadGateway(file, cmd.Flags())
		if err != nil {
			return err
		}
		logging.Setup(cfg.Log)
		cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "設定ファイルのパス（デフォルト: ./gateway.yaml）")
	rootCmd.PersistentFlags().String("log-level", "info", "ログレベル: debug, info, warn, error（環境変数: GATEWAY_LOG_LEVEL）")
	rootCmd.PersistentFlags().String("users-file", "", "ローカルユーザー定義ファイル（環境変数: GATEWAY_AUTH_USERS_FILE）")
	rootCmd.PersistentFlags().String("users-db", "", "ローカルユーザーのSQLite DSN（環境変数: GATEWAY_AUTH_USERS_DB）")
}

// configFrom はコマンドのコンテキストから設定を取り出す。
func configFrom(cmd *cobra.Command) *config.Gateway {
	cfg, _ := cmd.Context().Value(configKey{}).(*config.Gateway)
	return cfg
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
