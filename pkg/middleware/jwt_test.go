package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// testSecret はテスト用のトークン署名鍵。
const testSecret = "test-secret-key"

// newTokenRouter はRequireTokenを適用したテスト用ルーターを生成する。
func newTokenRouter() *gin.Engine {
	router := gin.New()
	router.Use(RequireToken(testSecret))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "roles": GetRoles(c)})
	})
	return router
}

// TestIssueAndParseToken はトークンの発行と検証を検証する。
func TestIssueAndParseToken(t *testing.T) {
	t.Parallel()

	t.Run("発行したトークンを検証できること", func(t *testing.T) {
		t.Parallel()

		token, err := IssueToken(testSecret, "admin", []string{"administrator"}, time.Minute)
		if err != nil {
			t.Fatalf("IssueToken()でエラーが発生: %v", err)
		}
		claims, err := ParseToken(testSecret, token)
		if err != nil {
			t.Fatalf("ParseToken()でエラーが発生: %v", err)
		}
		if claims.Subject != "admin" {
			t.Errorf("Subject = %q, want admin", claims.Subject)
		}
		if len(claims.Roles) != 1 || claims.Roles[0] != "administrator" {
			t.Errorf("Roles = %v", claims.Roles)
		}
		if claims.Issuer != TokenIssuer {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, TokenIssuer)
		}
	})

	t.Run("TTL未指定の場合はデフォルトの有効期間になること", func(t *testing.T) {
		t.Parallel()

		token, err := IssueToken(testSecret, "admin", nil, 0)
		if err != nil {
			t.Fatalf("IssueToken()でエラーが発生: %v", err)
		}
		claims, err := ParseToken(testSecret, token)
		if err != nil {
			t.Fatalf("ParseToken()でエラーが発生: %v", err)
		}
		ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
		if ttl != DefaultTokenTTL {
			t.Errorf("有効期間 = %v, want %v", ttl, DefaultTokenTTL)
		}
	})

	t.Run("異なる鍵・期限切れ・発行者違いは拒否されること", func(t *testing.T) {
		t.Parallel()

		token, _ := IssueToken("other-secret", "admin", nil, time.Minute)
		if _, err := ParseToken(testSecret, token); err == nil {
			t.Error("異なる鍵のトークンが受け入れられた")
		}

		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "admin",
				Issuer:    TokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})
		signed, _ := expired.SignedString([]byte(testSecret))
		if _, err := ParseToken(testSecret, signed); err == nil {
			t.Error("期限切れのトークンが受け入れられた")
		}

		foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "admin",
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		})
		signed, _ = foreign.SignedString([]byte(testSecret))
		if _, err := ParseToken(testSecret, signed); err == nil {
			t.Error("発行者の異なるトークンが受け入れられた")
		}
	})
}

// TestRequireToken はRequireTokenミドルウェアを検証する。
func TestRequireToken(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンでユーザーIDとロールが設定されること", func(t *testing.T) {
		t.Parallel()

		token, _ := IssueToken(testSecret, "00446", []string{"junior_crew"}, time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		newTokenRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		var body struct {
			UserID string   `json:"user_id"`
			Roles  []string `json:"roles"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if body.UserID != "00446" || len(body.Roles) != 1 || body.Roles[0] != "junior_crew" {
			t.Errorf("body = %+v", body)
		}
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "Authorizationヘッダーがない場合は401", header: ""},
		{name: "Basic認証形式の場合は401", header: "Basic YWRtaW46cGFzc3dvcmQ="},
		{name: "不正なトークンの場合は401", header: "Bearer invalid.token.value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newTokenRouter().ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}
