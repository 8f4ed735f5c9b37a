package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nao1215/edgegate/internal/credential"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "ローカルユーザーを管理する",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <userId> [secret]",
	Short: "SQLiteのユーザーディレクトリにユーザーを登録する",
	Long: `ユーザーを --users-db（または GATEWAY_AUTH_USERS_DB）で指定した
SQLiteデータベースに登録する。既に存在する場合はシークレットとロールを更新する。
シークレットを省略した場合は標準入力の1行目を使う。

Examples:
  gateway users add --users-db edgegate.db --role administrator admin 'p@ssw0rd'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUsersAdd,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "ローカルユーザーのIDとロールを表示する",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

func init() {
	usersAddCmd.Flags().StringSlice("role", nil, "付与するロール（複数指定可）")
	usersAddCmd.Flags().Int("cost", credential.DefaultCost, "bcryptのコスト")
	usersCmd.AddCommand(usersAddCmd, usersListCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := configFrom(cmd)
	if cfg.Auth.UsersDB == "" {
		return errors.New("--users-db が指定されていません")
	}

	secret, err := readSecret(cmd, args[1:])
	if err != nil {
		return err
	}
	roles, _ := cmd.Flags().GetStringSlice("role")
	cost, _ := cmd.Flags().GetInt("cost")

	hashed, err := credential.HashSecret(secret, cost)
	if err != nil {
		return err
	}

	db, err := credential.OpenDB(ctx, cfg.Auth.UsersDB)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Put(ctx, credential.Entry{ID: args[0], Secret: hashed, Roles: roles}); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "ユーザー %s を登録しました\n", args[0])
	return err
}

func runUsersList(cmd *cobra.Command, _ []string) error {
	store, err := loadStore(cmd.Context(), configFrom(cmd))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER ID\tROLES")
	for _, identity := range store.Identities() {
		fmt.Fprintf(w, "%s\t%s\n", identity.ID(), strings.Join(identity.Roles(), ","))
	}
	return w.Flush()
}
