package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/edgegate/internal/auth"
	"github.com/nao1215/edgegate/internal/credential"
	"github.com/nao1215/edgegate/internal/gateway"
	"github.com/nao1215/edgegate/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "ゲートウェイを起動する",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "リッスンポート（環境変数: GATEWAY_SERVER_PORT）")
	serveCmd.Flags().String("auth-mode", "local", "認証方式: open, local（環境変数: GATEWAY_AUTH_MODE）")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := configFrom(cmd)

	mode, err := auth.ParseMode(cfg.Auth.Mode)
	if err != nil {
		return err
	}

	var store *credential.Store
	if mode == auth.ModeLocal {
		store, err = loadStore(ctx, cfg)
		if err != nil {
			// 資格情報の設定不備は起動を中止する
			slog.Error("ローカルユーザーの読み込みに失敗", "error", err)
			return err
		}
	}

	authenticator, err := auth.New(mode, store, cfg.Auth.BcryptCost, slog.Default())
	if err != nil {
		return fmt.Errorf("認証方式の初期化に失敗: %w", err)
	}

	server, err := gateway.NewServer(cfg, authenticator, slog.Default())
	if err != nil {
		return fmt.Errorf("ゲートウェイの初期化に失敗: %w", err)
	}
	return server.Run(ctx)
}

// loadStore は設定に従ってローカルユーザーを読み込む。
// SQLiteのDSNが指定されている場合はファイルより優先する。
func loadStore(ctx context.Context, cfg *config.Gateway) (*credential.Store, error) {
	if cfg.Auth.UsersDB != "" {
		return credential.LoadSQLite(ctx, cfg.Auth.UsersDB)
	}
	return credential.Load(cfg.Auth.UsersFile)
}
