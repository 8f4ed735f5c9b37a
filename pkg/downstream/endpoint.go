package downstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/edgegate/pkg/httpclient"
)

// Endpoint はバックエンドの1機能（例: 商品一覧の取得）を呼び出すクライアント。
type Endpoint[T any] struct {
	// name はログ出力用の機能名。
	name string
	// client はバックエンドへのHTTPクライアント。
	client *httpclient.Client
	// timeout は1回の呼び出しのタイムアウト。0以下なら無制限。
	timeout time.Duration
	// fallback は劣化時の代替値の供給関数。nilならFailedを返す。
	fallback Fallback[T]
	// logger はロガー。
	logger *slog.Logger
}

// EndpointConfig はEndpointの生成パラメータ。
type EndpointConfig[T any] struct {
	// Name はログ出力用の機能名。
	Name string
	// Client はバックエンドへのHTTPクライアント。
	Client *httpclient.Client
	// Timeout は1回の呼び出しのタイムアウト。
	Timeout time.Duration
	// Fallback は劣化時の代替値の供給関数。
	Fallback Fallback[T]
	// Logger はロガー。nilならslog.Default()を使用する。
	Logger *slog.Logger
}

// NewEndpoint は新しいEndpointを生成する。
func NewEndpoint[T any](cfg EndpointConfig[T]) *Endpoint[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Endpoint[T]{
		name:     cfg.Name,
		client:   cfg.Client,
		timeout:  cfg.Timeout,
		fallback: cfg.Fallback,
		logger:   logger.With("endpoint", cfg.Name),
	}
}

// Get は指定パスにGETリクエストを送り、結果をResultとして返す。
// エラーを返すことはない。
func (e *Endpoint[T]) Get(ctx context.Context, path string) Result[T] {
	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var v T
	err := e.client.GetJSON(callCtx, path, &v)
	if err == nil {
		return Ok(v)
	}

	// 呼び出し元のキャンセルは劣化ではない。結果を使う者がいないため代替値も返さない。
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Failed[T](ctxErr)
	}

	cause := fmt.Errorf("%s: %w: %w", e.name, ErrBackendUnavailable, err)
	if e.fallback == nil {
		e.logger.Warn("バックエンド呼び出しに失敗", "path", path, "error", err)
		return Failed[T](cause)
	}

	level := slog.LevelWarn
	if errors.Is(err, context.DeadlineExceeded) {
		level = slog.LevelError
	}
	e.logger.Log(ctx, level, "バックエンド呼び出しに失敗したためフォールバック値を返します",
		"path", path, "error", err, "request_id", httpclient.RequestIDFrom(ctx))
	return Degraded(e.fallback(), cause)
}
