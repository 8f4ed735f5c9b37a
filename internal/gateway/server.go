package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/edgegate/internal/auth"
	"github.com/nao1215/edgegate/pkg/config"
	"github.com/nao1215/edgegate/pkg/httpserver"
	"github.com/nao1215/edgegate/pkg/middleware"
)

// Realm はWWW-Authenticateヘッダーで通知する認証領域。
const Realm = "edgegate"

// Server はゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// server はリッスンとシャットダウンの設定。
	server config.ServerConfig
	logger *slog.Logger

	authenticator *auth.Authenticator
	routes        *RouteTable
	gate          *Gate
	proxy         *Proxy
	interceptor   *Interceptor
	pipeline      *pipeline
}

// NewServer は新しいゲートウェイサーバーを生成する。
func NewServer(cfg *config.Gateway, authenticator *auth.Authenticator, logger *slog.Logger) (*Server, error) {
	if authenticator == nil {
		return nil, errors.New("認証方式が指定されていません")
	}
	if logger == nil {
		logger = slog.Default()
	}

	routes, err := NewRouteTable(cfg.Routes)
	if err != nil {
		return nil, fmt.Errorf("ルーティング設定の読み込みに失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.AccessLog(logger))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	s := &Server{
		router:        router,
		server:        cfg.Server,
		logger:        logger,
		authenticator: authenticator,
		routes:        routes,
		gate:          NewGate(cfg.AllowedServices, cfg.Access),
		proxy:         NewProxy(cfg.Proxy.Timeout, cfg.Token.Secret, cfg.Token.TTL),
		interceptor:   NewInterceptor(cfg.Proxy.InterceptLogLimit, logger),
	}
	s.pipeline = s.newPipeline()
	s.setupRoutes()

	logger.Info("ゲートウェイを構成しました",
		"auth_mode", authenticator.Mode(),
		"allowed_services", s.gate.Allowed(),
		"stages", s.Stages(),
	)
	return s, nil
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるまで待つ。
func (s *Server) Run(ctx context.Context) error {
	return httpserver.Serve(ctx, s.server.Addr(), s.router, s.server.ShutdownTimeout, s.logger)
}

// setupRoutes はルーティングを設定する。
// /actuator 以外のすべてのパスはパイプラインで処理する。
func (s *Server) setupRoutes() {
	actuator := s.router.Group("/actuator")
	{
		actuator.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
		})
		actuator.GET("/routes", s.handleListRoutes())
	}

	s.router.NoRoute(s.handlePipeline())
}

// routeView は /actuator/routes の1要素。
type routeView struct {
	ServiceID     string   `json:"serviceId"`
	URL           string   `json:"url"`
	StripPrefix   bool     `json:"stripPrefix"`
	Allowed       bool     `json:"allowed"`
	RequiredRoles []string `json:"requiredRoles"`
}

// handleListRoutes は設定された転送先と許可リストを返すハンドラを返す。
func (s *Server) handleListRoutes() gin.HandlerFunc {
	return func(c *gin.Context) {
		list := s.routes.List()
		views := make([]routeView, 0, len(list))
		for _, r := range list {
			roles := s.gate.RequiredRoles(r.ServiceID)
			if roles == nil {
				roles = []string{}
			}
			views = append(views, routeView{
				ServiceID:     r.ServiceID,
				URL:           r.URL(),
				StripPrefix:   r.StripPrefix,
				Allowed:       s.gate.Admit(r.ServiceID, true).Allowed,
				RequiredRoles: roles,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"allowedServices": s.gate.Allowed(),
			"routes":          views,
		})
	}
}

// handlePipeline はパイプラインでリクエストを処理するハンドラを返す。
func (s *Server) handlePipeline() gin.HandlerFunc {
	return func(c *gin.Context) {
		ex := &exchange{req: c.Request}
		err := s.pipeline.run(c.Request.Context(), ex)
		if ex.resp != nil {
			defer ex.resp.Body.Close()
		}
		if err != nil {
			s.writeError(c, err)
			return
		}
		s.writeResponse(c, ex.resp)
	}
}

// writeError はパイプラインのエラーをHTTPレスポンスに変換する。
// レスポンスボディには詳細を含めない。
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInsufficientRole):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "アクセス権限がありません"})
	case errors.Is(err, auth.ErrRejected):
		c.Header("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", Realm))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
	case errors.Is(err, ErrRouteForbidden):
		c.Data(http.StatusNotFound, "text/html", nil)
		c.Abort()
	case errors.Is(err, errBackendUnreachable):
		s.logger.WarnContext(c.Request.Context(), "転送に失敗", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "内部サービスとの通信に失敗しました"})
	default:
		s.logger.ErrorContext(c.Request.Context(), "リクエストの処理に失敗", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "内部サーバーエラーが発生しました"})
	}
}

// writeResponse は転送先のレスポンスを呼び出し元に返す。
func (s *Server) writeResponse(c *gin.Context, resp *http.Response) {
	header := resp.Header.Clone()
	removeHopHeaders(header)
	header.Del("Content-Length")
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	header.Del("Content-Type")

	dst := c.Writer.Header()
	for k, vs := range header {
		// ゲートウェイのミドルウェアが設定したヘッダーを優先する
		if strings.EqualFold(k, "X-Request-Id") || strings.HasPrefix(strings.ToLower(k), "access-control-") {
			continue
		}
		dst[k] = vs
	}

	c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, nil)
}
