package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer は内部IDトークンの発行者名。
const TokenIssuer = "edgegate-gateway"

// DefaultTokenTTL は内部IDトークンのデフォルト有効期間。
// トークンは1リクエストの転送にのみ使うため短くしている。
const DefaultTokenTTL = time.Minute

// Ginコンテキストに保存するキー。
const (
	contextKeyUserID = "user_id"
	contextKeyRoles  = "roles"
)

// IdentityClaims は内部IDトークンのクレーム。
// ゲートウェイで認証されたユーザーを内部サービスへ伝えるために使用する。
type IdentityClaims struct {
	jwt.RegisteredClaims
	// Roles は認証されたユーザーのロール。
	Roles []string `json:"roles,omitempty"`
}

// IssueToken は認証済みユーザーの内部IDトークンを発行する。
func IssueToken(secret, subject string, roles []string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
		},
		Roles: roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseToken は内部IDトークンを検証してクレームを返す。
func ParseToken(secret, tokenString string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("トークンが無効です")
	}
	return claims, nil
}

// RequireToken は内部IDトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "user_id" と "roles" を設定する。
func RequireToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set(contextKeyUserID, claims.Subject)
		c.Set(contextKeyRoles, claims.Roles)
		c.Next()
	}
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
// RequireTokenミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	return c.GetString(contextKeyUserID)
}

// GetRoles はGinコンテキストからロールを取得する。
func GetRoles(c *gin.Context) []string {
	return c.GetStringSlice(contextKeyRoles)
}
