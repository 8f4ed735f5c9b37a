package credential

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nao1215/edgegate/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB はSQLiteに保存された資格情報ディレクトリ。
type DB struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenDB はSQLiteデータベースを開き、スキーマを最新にする。
func OpenDB(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if _, err := migration.Run(ctx, sqlDB, migrations, "migrations"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &DB{db: sqlDB}, nil
}

// Close はデータベース接続を閉じる。
func (d *DB) Close() error {
	return d.db.Close()
}

// Put はユーザーを登録する。既に存在する場合はシークレットとロールを更新する。
func (d *DB) Put(ctx context.Context, e Entry) error {
	identity, err := newIdentity(e.ID, e.Secret, e.Roles)
	if err != nil {
		return err
	}
	roles, err := json.Marshal(identity.roles)
	if err != nil {
		return fmt.Errorf("ロールのシリアライズに失敗: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO local_users (id, secret_hash, roles) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			secret_hash = excluded.secret_hash,
			roles = excluded.roles,
			updated_at = datetime('now')
	`, identity.id, e.Secret, string(roles))
	if err != nil {
		return fmt.Errorf("ユーザーの保存に失敗: %w", err)
	}
	return nil
}

// Load はデータベースに保存された全ユーザーをStoreとして読み込む。
// 不正な行が含まれる場合はErrConfigを返す。
func (d *DB) Load(ctx context.Context) (*Store, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, secret_hash, roles FROM local_users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var id, secret, rolesJSON string
		if err := rows.Scan(&id, &secret, &rolesJSON); err != nil {
			return nil, fmt.Errorf("ユーザー行の読み取りに失敗: %w", err)
		}
		var roles []string
		if err := json.Unmarshal([]byte(rolesJSON), &roles); err != nil {
			return nil, fmt.Errorf("%w: userId=%s のrolesが不正です", ErrConfig, id)
		}
		entries = append(entries, Entry{ID: id, Secret: secret, Roles: roles})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	return New(entries)
}

// LoadSQLite はSQLiteデータベースから資格情報を読み込んで接続を閉じる。
func LoadSQLite(ctx context.Context, dsn string) (*Store, error) {
	d, err := OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Load(ctx)
}
