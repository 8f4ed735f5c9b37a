package credential

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Identity はローカルユーザーの資格情報。生成後は変更できない。
// ハッシュ値はアクセサからもログからも参照できない。
type Identity struct {
	id         string
	secretHash []byte
	roles      []string
}

// newIdentity は入力を検証してIdentityを生成する。
// ロールは出現順を保ったまま重複を取り除く。
func newIdentity(id, secret string, roles []string) (Identity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Identity{}, fmt.Errorf("%w: userIdが空です", ErrConfig)
	}
	if secret == "" {
		return Identity{}, fmt.Errorf("%w: userId=%s のpasswordが空です", ErrConfig, id)
	}
	hash, err := parseSecret(secret)
	if err != nil {
		return Identity{}, fmt.Errorf("userId=%s: %w", id, err)
	}

	ordered := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(ordered, r) {
			continue
		}
		ordered = append(ordered, r)
	}
	return Identity{id: id, secretHash: hash, roles: ordered}, nil
}

// ID はユーザーIDを返す。
func (i Identity) ID() string { return i.id }

// Roles はロールのコピーを返す。
func (i Identity) Roles() []string { return slices.Clone(i.roles) }

// HasAnyRole はいずれかのロールを持っているかどうかを返す。
func (i Identity) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(i.roles, r) {
			return true
		}
	}
	return false
}

// CompareSecret は平文のシークレットがハッシュと一致するかを検証する。
// 一致しない場合はエラーを返す。
func (i Identity) CompareSecret(secret string) error {
	return bcrypt.CompareHashAndPassword(i.secretHash, []byte(secret))
}

// Cost はハッシュのbcryptコストを返す。
func (i Identity) Cost() int {
	cost, err := bcrypt.Cost(i.secretHash)
	if err != nil {
		return 0
	}
	return cost
}

// String はIDとロールのみを含む文字列を返す。
func (i Identity) String() string {
	return fmt.Sprintf("%s%v", i.id, i.roles)
}

// LogValue はslog.LogValuerの実装。シークレットは出力しない。
func (i Identity) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", i.id),
		slog.Any("roles", i.roles),
	)
}
