package gateway

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
)

// Interceptor は転送先から返されたレスポンスボディを記録する。
// ボディは読み取った後、同じバイト列として付け直す。
type Interceptor struct {
	// limit はログに出力するボディの最大バイト数。0ならボディは出力しない。
	limit  int
	logger *slog.Logger
}

// NewInterceptor は新しいInterceptorを生成する。
func NewInterceptor(limit int, logger *slog.Logger) *Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	if limit < 0 {
		limit = 0
	}
	return &Interceptor{limit: limit, logger: logger}
}

// Intercept はレスポンスボディを読み取って記録し、付け直す。
// 読み取りに失敗した場合も処理は失敗させず、読めた分と残りのストリームを連結して付け直す。
// 付け直した後のボディ長が分かる場合はresp.ContentLengthに設定し、分からない場合は-1にする。
func (i *Interceptor) Intercept(ctx context.Context, resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	original := resp.Body
	body, err := io.ReadAll(original)
	if err != nil {
		i.logger.ErrorContext(ctx, "レスポンスボディの読み取りに失敗",
			"status", resp.StatusCode, "read_bytes", len(body), "error", err)
		resp.Body = &replayBody{
			Reader: io.MultiReader(bytes.NewReader(body), original),
			closer: original,
		}
		resp.ContentLength = -1
		return
	}
	_ = original.Close()

	attrs := []any{"status", resp.StatusCode, "bytes", len(body)}
	if i.limit > 0 {
		logged := body
		if len(logged) > i.limit {
			logged = logged[:i.limit]
			attrs = append(attrs, "truncated", true)
		}
		attrs = append(attrs, "body", string(logged))
	}
	i.logger.InfoContext(ctx, "レスポンスボディ", attrs...)

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
}

// replayBody は読み取り済みの部分と元のボディを連結したボディ。
// Closeは元のボディを閉じる。
type replayBody struct {
	io.Reader
	closer io.Closer
}

// Close はio.Closerの実装。
func (b *replayBody) Close() error {
	return b.closer.Close()
}
