package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/edgegate/internal/auth"
	"github.com/nao1215/edgegate/pkg/httpclient"
	"github.com/nao1215/edgegate/pkg/middleware"
)

// errBackendUnreachable は転送先に接続できなかったことを表す。
var errBackendUnreachable = errors.New("転送先サービスに接続できません")

// hopHeaders は転送しないホップバイホップヘッダー。
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy は認証済みリクエストを転送先サービスに転送する。
type Proxy struct {
	client *http.Client
	// secret は内部IDトークンの署名鍵。空ならトークンを発行しない。
	secret string
	// ttl は内部IDトークンの有効期間。
	ttl time.Duration
}

// NewProxy は新しいProxyを生成する。
func NewProxy(timeout time.Duration, secret string, ttl time.Duration) *Proxy {
	return &Proxy{
		client: &http.Client{
			Timeout: timeout,
			// リダイレクトは呼び出し元にそのまま返す
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		secret: secret,
		ttl:    ttl,
	}
}

// Forward はinをrouteの転送先に転送し、レスポンスを返す。
// 呼び出し元はレスポンスボディを閉じる必要がある。
func (p *Proxy) Forward(ctx context.Context, in *http.Request, route Route, rest string, result auth.Result) (*http.Response, error) {
	target := route.TargetURL(in.URL.EscapedPath(), rest, in.URL.RawQuery)

	body := in.Body
	if in.ContentLength == 0 {
		body = http.NoBody
	}
	out, err := http.NewRequestWithContext(ctx, in.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("転送リクエストの作成に失敗: %w", err)
	}
	out.ContentLength = in.ContentLength
	out.Header = forwardHeaders(in)

	ctx = httpclient.WithUserID(ctx, result.Subject())
	if p.secret != "" {
		token, err := middleware.IssueToken(p.secret, result.Subject(), result.Roles, p.ttl)
		if err != nil {
			return nil, err
		}
		ctx = httpclient.WithBearerToken(ctx, token)
	}
	httpclient.Propagate(ctx, out.Header)

	resp, err := p.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errBackendUnreachable, route.ServiceID, err)
	}
	return resp, nil
}

// forwardHeaders は転送用のヘッダーを組み立てる。
// ホップバイホップヘッダーとBasic認証の資格情報は取り除く。
func forwardHeaders(in *http.Request) http.Header {
	h := in.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	removeHopHeaders(h)

	if strings.HasPrefix(strings.ToLower(h.Get("Authorization")), "basic ") {
		h.Del("Authorization")
	}
	h.Del(httpclient.HeaderUserID)

	if ip, _, err := net.SplitHostPort(in.RemoteAddr); err == nil {
		if prior := h.Get("X-Forwarded-For"); prior != "" {
			ip = prior + ", " + ip
		}
		h.Set("X-Forwarded-For", ip)
	}
	h.Set("X-Forwarded-Host", in.Host)
	proto := "http"
	if in.TLS != nil {
		proto = "https"
	}
	h.Set("X-Forwarded-Proto", proto)
	return h
}

// removeHopHeaders はホップバイホップヘッダーとConnectionで指定されたヘッダーを取り除く。
func removeHopHeaders(h http.Header) {
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}
