package webapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/edgegate/pkg/config"
	"github.com/nao1215/edgegate/pkg/downstream"
	"github.com/nao1215/edgegate/pkg/httpclient"
	"github.com/nao1215/edgegate/pkg/httpserver"
	"github.com/nao1215/edgegate/pkg/middleware"
)

// Server はwebapiサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// server はリッスンとシャットダウンの設定。
	server config.ServerConfig
	logger *slog.Logger

	aggregator *Aggregator
	reviews    *ReviewsClient
	// tokenSecret は内部IDトークンの検証鍵。空なら検証しない。
	tokenSecret string
}

// NewServer は新しいwebapiサーバーを生成する。
func NewServer(cfg *config.WebAPI, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	itemsPolicy, err := downstream.ParsePolicy(cfg.Items.Fallback)
	if err != nil {
		return nil, fmt.Errorf("itemsの設定が不正です: %w", err)
	}
	reviewsPolicy, err := downstream.ParsePolicy(cfg.Reviews.Fallback)
	if err != nil {
		return nil, fmt.Errorf("reviewsの設定が不正です: %w", err)
	}

	items, err := NewItemsClient(httpclient.New(cfg.Items.URL), cfg.Items.Timeout, itemsPolicy, logger)
	if err != nil {
		return nil, err
	}
	reviews, err := NewReviewsClient(httpclient.New(cfg.Reviews.URL), cfg.Reviews.Timeout, reviewsPolicy, logger)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.AccessLog(logger))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	s := &Server{
		router:      router,
		server:      cfg.Server,
		logger:      logger,
		aggregator:  NewAggregator(items, reviews, cfg.ReviewType, logger),
		reviews:     reviews,
		tokenSecret: cfg.Token.Secret,
	}
	s.setupRoutes()

	logger.Info("webapiを構成しました",
		"items_url", cfg.Items.URL, "items_fallback", itemsPolicy,
		"reviews_url", cfg.Reviews.URL, "reviews_fallback", reviewsPolicy,
		"verify_token", s.tokenSecret != "",
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

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/webapi")
	if s.tokenSecret != "" {
		api.Use(middleware.RequireToken(s.tokenSecret))
	}
	api.Use(propagateUser())
	{
		// アイテム一覧（レビュー付き）
		api.GET("/items", s.handleListItems())
		// アイテム詳細（レビュー付き）
		api.GET("/items/:id", s.handleGetItem())
		// レビュー作成（reviewsサービスへの中継）
		api.POST("/reviews", s.handleCreateReview())
		// レビュー削除（reviewsサービスへの中継）
		api.DELETE("/reviews/:id", s.handleDeleteReview())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "webapi"})
	})
}

// propagateUser はトークンから得たユーザーIDをバックエンド呼び出しに伝播する。
func propagateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := middleware.GetUserID(c); userID != "" {
			c.Request = c.Request.WithContext(httpclient.WithUserID(c.Request.Context(), userID))
		}
		c.Next()
	}
}

// createReviewRequest はレビュー作成リクエストのJSON構造。
type createReviewRequest struct {
	// Type はレビュー対象の種別。
	Type string `json:"type" binding:"required"`
	// TypeID はレビュー対象の識別子。番兵アイテムのID 0も受け付ける。
	TypeID *int64 `json:"typeId" binding:"required"`
	// Rating は評価値。
	Rating int `json:"rating"`
	// RatingMin は評価値の下限。
	RatingMin int `json:"ratingMin"`
	// RatingMax は評価値の上限。
	RatingMax int `json:"ratingMax"`
	// Comment はコメント。
	Comment string `json:"comment"`
}

// handleListItems はアイテム一覧の取得を処理するハンドラを返す。
func (s *Server) handleListItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.aggregator.GetAll(c.Request.Context())
		if err != nil {
			s.logger.ErrorContext(c.Request.Context(), "アイテム一覧の取得エラー", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "アイテム一覧の取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// handleGetItem はアイテム詳細の取得を処理するハンドラを返す。
func (s *Server) handleGetItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		item, err := s.aggregator.GetOne(c.Request.Context(), id)
		if errors.Is(err, ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "アイテムが見つかりません"})
			return
		}
		if err != nil {
			s.logger.ErrorContext(c.Request.Context(), "アイテムの取得エラー", "id", id, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "アイテムの取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// handleCreateReview はレビュー作成を処理するハンドラを返す。
func (s *Server) handleCreateReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		created, err := s.reviews.Create(c.Request.Context(), Review{
			Type:      req.Type,
			TypeID:    *req.TypeID,
			Rating:    req.Rating,
			RatingMin: req.RatingMin,
			RatingMax: req.RatingMax,
			Comment:   req.Comment,
		})
		if err != nil {
			s.writeBackendError(c, "レビューの作成に失敗しました", err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// handleDeleteReview はレビュー削除を処理するハンドラを返す。
func (s *Server) handleDeleteReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := s.reviews.Delete(c.Request.Context(), id); err != nil {
			s.writeBackendError(c, "レビューの削除に失敗しました", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// writeBackendError はreviewsサービスの失敗をHTTPレスポンスに変換する。
// 4xxはそのままのステータスで、それ以外は502で返す。
func (s *Server) writeBackendError(c *gin.Context, message string, err error) {
	var se *httpclient.StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		c.JSON(se.StatusCode, gin.H{"error": message})
		return
	}
	s.logger.ErrorContext(c.Request.Context(), message, "error", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": message})
}

// parseID はパスパラメータのIDを解析する。不正な場合は400を返してfalseを返す。
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
		return 0, false
	}
	return id, true
}
