package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestForwardHeaders は転送ヘッダーの組み立てを検証する。
func TestForwardHeaders(t *testing.T) {
	t.Parallel()

	t.Run("ホップバイホップヘッダーとBasic認証が取り除かれること", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "http://gateway.local/webapi/items", nil)
		req.SetBasicAuth("admin", "secret")
		req.Header.Set("Connection", "keep-alive, X-Private")
		req.Header.Set("X-Private", "1")
		req.Header.Set("Keep-Alive", "timeout=5")
		req.Header.Set("X-User-ID", "spoofed")
		req.Header.Set("Accept", "application/json")

		h := forwardHeaders(req)

		for _, name := range []string{"Authorization", "Connection", "X-Private", "Keep-Alive", "X-User-ID"} {
			if v := h.Get(name); v != "" {
				t.Errorf("%s = %q, 取り除かれるべき", name, v)
			}
		}
		if h.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", h.Get("Accept"))
		}
		if h.Get("X-Forwarded-Host") != "gateway.local" || h.Get("X-Forwarded-Proto") != "http" {
			t.Errorf("X-Forwarded-* = %q, %q", h.Get("X-Forwarded-Host"), h.Get("X-Forwarded-Proto"))
		}
		// httptest.NewRequestのRemoteAddrは192.0.2.1:1234
		if h.Get("X-Forwarded-For") != "192.0.2.1" {
			t.Errorf("X-Forwarded-For = %q", h.Get("X-Forwarded-For"))
		}
	})

	t.Run("Bearerトークンは保持されX-Forwarded-Forに追記されること", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/webapi/items", nil)
		req.Header.Set("Authorization", "Bearer client-token")
		req.Header.Set("X-Forwarded-For", "203.0.113.9")

		h := forwardHeaders(req)

		if h.Get("Authorization") != "Bearer client-token" {
			t.Errorf("Authorization = %q", h.Get("Authorization"))
		}
		if h.Get("X-Forwarded-For") != "203.0.113.9, 192.0.2.1" {
			t.Errorf("X-Forwarded-For = %q", h.Get("X-Forwarded-For"))
		}
	})
}
