package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/edgegate/internal/credential"
)

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret [secret]",
	Short: "users.yml に記述するパスワードハッシュを生成する",
	Long: `平文のシークレットをbcryptでハッシュ化し、{bcrypt} タグ付きで出力する。
引数を省略した場合は標準入力の1行目を使う。

Examples:
  gateway hash-secret 'p@ssw0rd'
  echo 'p@ssw0rd' | gateway hash-secret`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashSecret,
}

func init() {
	hashSecretCmd.Flags().Int("cost", credential.DefaultCost, "bcryptのコスト")
	rootCmd.AddCommand(hashSecretCmd)
}

func runHashSecret(cmd *cobra.Command, args []string) error {
	secret, err := readSecret(cmd, args)
	if err != nil {
		return err
	}
	cost, _ := cmd.Flags().GetInt("cost")

	hashed, err := credential.HashSecret(secret, cost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hashed)
	return err
}

// readSecret は引数または標準入力の1行目からシークレットを読み取る。
func readSecret(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("標準入力の読み込みに失敗: %w", err)
		}
		return "", errors.New("シークレットが指定されていません")
	}
	secret := strings.TrimRight(sc.Text(), "\r")
	if secret == "" {
		return "", errors.New("シークレットが空です")
	}
	return secret, nil
}
