// 集約Web APIサービスのエントリポイント。
// itemsサービスとreviewsサービスへの呼び出しを1つの応答にまとめる。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/edgegate/internal/webapi"
	"github.com/nao1215/edgegate/pkg/config"
	"github.com/nao1215/edgegate/pkg/logging"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version:      version,
	Use:          "webapi",
	Short:        "itemsとreviewsを集約するWeb APIサービス",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "webapiを起動する",
	Long: `webapiを起動する。

設定は webapi.yaml、WEBAPI_ プレフィックスの環境変数、フラグから読み込む。`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "設定ファイルのパス（デフォルト: ./webapi.yaml）")
	rootCmd.PersistentFlags().String("log-level", "info", "ログレベル: debug, info, warn, error（環境変数: WEBAPI_LOG_LEVEL）")

	serveCmd.Flags().Int("port", 8081, "リッスンポート（環境変数: WEBAPI_SERVER_PORT）")
	serveCmd.Flags().String("items-url", "", "itemsサービスのURL（環境変数: WEBAPI_ITEMS_URL）")
	serveCmd.Flags().String("reviews-url", "", "reviewsサービスのURL（環境変数: WEBAPI_REVIEWS_URL）")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWebAPI(file, cmd.Flags())
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.Log)

	server, err := webapi.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("webapiの初期化に失敗: %w", err)
	}
	slog.Info("webapiを起動します", "version", version)
	return server.Run(cmd.Context())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
