package httpclient

import (
	"context"
	"net/http"
)

// contextKey はコンテキストキーの型。
type contextKey string

const (
	// contextKeyUserID はコンテキストにユーザーIDを格納するためのキー。
	contextKeyUserID contextKey = "user_id"
	// contextKeyRequestID はコンテキストにリクエストIDを格納するためのキー。
	contextKeyRequestID contextKey = "request_id"
	// contextKeyToken はコンテキストに内部認証トークンを格納するためのキー。
	contextKeyToken contextKey = "token"
)

// 伝播に使用するHTTPヘッダー名。
const (
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-ID"
)

// WithUserID はコンテキストにユーザーIDを設定する。
// サービス間通信時にユーザーIDを伝播するために使用する。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// WithRequestID はコンテキストにリクエストIDを設定する。
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// WithBearerToken はコンテキストに内部認証トークンを設定する。
// 設定されている場合はAuthorizationヘッダーにBearerトークンとして付与される。
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken, token)
}

// RequestIDFrom はコンテキストからリクエストIDを取り出す。
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// Propagate はコンテキストに格納された相関情報をヘッダーに設定する。
// ユーザーID、リクエストID、内部認証トークンが対象。
func Propagate(ctx context.Context, h http.Header) {
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		h.Set(HeaderUserID, userID)
	}
	if requestID, ok := ctx.Value(contextKeyRequestID).(string); ok && requestID != "" {
		h.Set(HeaderRequestID, requestID)
	}
	if token, ok := ctx.Value(contextKeyToken).(string); ok && token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
}
