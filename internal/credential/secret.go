package credential

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost はbcryptのデフォルトのコスト（ラウンド数の対数）。
const DefaultCost = bcrypt.DefaultCost

// tagBcrypt はbcryptハッシュを表すタグ。
const tagBcrypt = "bcrypt"

// HashSecret は平文のシークレットをbcryptでハッシュ化し、タグ付きの文字列を返す。
func HashSecret(secret string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("シークレットのハッシュ化に失敗: %w", err)
	}
	return "{" + tagBcrypt + "}" + string(hash), nil
}

// parseSecret はタグ付きのシークレット文字列を検証し、ハッシュ部分を返す。
func parseSecret(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(s, "{")
	if !ok {
		return nil, fmt.Errorf("%w: ハッシュ方式のタグがありません", ErrConfig)
	}
	tag, hash, ok := strings.Cut(rest, "}")
	if !ok {
		return nil, fmt.Errorf("%w: ハッシュ方式のタグが閉じられていません", ErrConfig)
	}
	if tag != tagBcrypt {
		return nil, fmt.Errorf("%w: 未対応のハッシュ方式 %q", ErrConfig, tag)
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("%w: bcryptハッシュが不正です", ErrConfig)
	}
	return []byte(hash), nil
}
