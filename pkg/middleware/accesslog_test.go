package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/edgegate/pkg/httpclient"
)

// TestAccessLog はAccessLogミドルウェアを検証する。
func TestAccessLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID(), AccessLog(slog.New(slog.NewTextHandler(&buf, nil))))
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(httpclient.HeaderRequestID, "log-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "path=/missing", "request_id=log-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("ログに %q が含まれていない: %s", want, out)
		}
	}
}
