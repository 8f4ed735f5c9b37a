package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"
)

// closeRecorder はCloseの呼び出しを記録するボディ。
type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

// TestInterceptor はレスポンスボディの記録と付け直しを検証する。
func TestInterceptor(t *testing.T) {
	t.Parallel()

	t.Run("ボディが変更されずに付け直されること", func(t *testing.T) {
		t.Parallel()

		var logBuf bytes.Buffer
		i := NewInterceptor(1024, slog.New(slog.NewTextHandler(&logBuf, nil)))
		original := &closeRecorder{Reader: strings.NewReader(`{"id":1}`)}
		resp := &http.Response{StatusCode: http.StatusOK, Body: original, ContentLength: -1}

		i.Intercept(context.Background(), resp)

		got, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("ボディの読み取りに失敗: %v", err)
		}
		if string(got) != `{"id":1}` {
			t.Errorf("body = %q", got)
		}
		if resp.ContentLength != int64(len(got)) {
			t.Errorf("ContentLength = %d, want %d", resp.ContentLength, len(got))
		}
		if !original.closed {
			t.Error("元のボディが閉じられていない")
		}
		if !strings.Contains(logBuf.String(), `body="{\"id\":1}"`) {
			t.Errorf("ボディがログに出力されていない: %s", logBuf.String())
		}
	})

	t.Run("ログ出力は上限で切り詰められること", func(t *testing.T) {
		t.Parallel()

		var logBuf bytes.Buffer
		i := NewInterceptor(4, slog.New(slog.NewTextHandler(&logBuf, nil)))
		resp := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("abcdefgh"))}

		i.Intercept(context.Background(), resp)

		got, _ := io.ReadAll(resp.Body)
		if string(got) != "abcdefgh" {
			t.Errorf("body = %q, want abcdefgh", got)
		}
		out := logBuf.String()
		if !strings.Contains(out, "body=abcd\n") || strings.Contains(out, "abcde") {
			t.Errorf("ログが切り詰められていない: %s", out)
		}
		if !strings.Contains(out, "truncated=true") {
			t.Errorf("切り詰めが記録されていない: %s", out)
		}
	})

	t.Run("読み取りに失敗しても読めた分が付け直されること", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		var logBuf bytes.Buffer
		i := NewInterceptor(1024, slog.New(slog.NewTextHandler(&logBuf, nil)))
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(errBoom))),
		}

		i.Intercept(context.Background(), resp)

		got, err := io.ReadAll(resp.Body)
		if string(got) != "partial" {
			t.Errorf("body = %q, want partial", got)
		}
		if !errors.Is(err, errBoom) {
			t.Errorf("err = %v, want %v", err, errBoom)
		}
		if resp.ContentLength != -1 {
			t.Errorf("ContentLength = %d, want -1", resp.ContentLength)
		}
		if !strings.Contains(logBuf.String(), "level=ERROR") {
			t.Errorf("読み取り失敗がログに出力されていない: %s", logBuf.String())
		}
	})

	t.Run("ボディがない場合は何もしないこと", func(t *testing.T) {
		t.Parallel()

		NewInterceptor(0, nil).Intercept(context.Background(), &http.Response{StatusCode: http.StatusNoContent})
		NewInterceptor(0, nil).Intercept(context.Background(), nil)
	})
}
