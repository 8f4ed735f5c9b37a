package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nao1215/edgegate/internal/auth"
)

// exchange は1リクエストの処理中の状態。各ステージが順に埋めていく。
type exchange struct {
	req *http.Request

	// authenticate で設定される
	auth auth.Result

	// gate で設定される
	serviceID string
	rest      string
	route     Route

	// dispatch で設定される
	resp *http.Response
}

// stage はパイプラインの1段階。エラーを返した時点で以降のステージは実行しない。
type stage struct {
	name string
	run  func(ctx context.Context, ex *exchange) error
}

// pipeline は順序付きのステージ列。
type pipeline struct {
	stages []stage
	logger *slog.Logger
}

// run はステージを宣言順に実行する。
func (p *pipeline) run(ctx context.Context, ex *exchange) error {
	for _, st := range p.stages {
		if err := st.run(ctx, ex); err != nil {
			p.logger.DebugContext(ctx, "パイプラインを中断", "stage", st.name, "error", err)
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return nil
}

// Stages はステージ名を実行順に返す。
func (s *Server) Stages() []string {
	names := make([]string, 0, len(s.pipeline.stages))
	for _, st := range s.pipeline.stages {
		names = append(names, st.name)
	}
	return names
}

// newPipeline はゲートウェイのステージ列を構築する。
func (s *Server) newPipeline() *pipeline {
	return &pipeline{
		stages: []stage{
			{name: "authenticate", run: s.authenticate},
			{name: "gate", run: s.admit},
			{name: "dispatch", run: s.dispatch},
			{name: "intercept-response", run: s.interceptResponse},
		},
		logger: s.logger,
	}
}

// authenticate はBasic認証の資格情報を検証する。
func (s *Server) authenticate(_ context.Context, ex *exchange) error {
	if !s.authenticator.RequiresCredentials() {
		ex.auth = s.authenticator.Authenticate("", "")
		return nil
	}

	id, secret, ok := ex.req.BasicAuth()
	if !ok {
		return fmt.Errorf("%w: 資格情報がありません", auth.ErrRejected)
	}
	ex.auth = s.authenticator.Authenticate(id, secret)
	return ex.auth.Err()
}

// admit はサービスIDを解決し、許可リストとロール要求を確認する。
func (s *Server) admit(_ context.Context, ex *exchange) error {
	serviceID, rest, route, resolved := s.routes.Resolve(ex.req.URL.EscapedPath())
	decision := s.gate.Admit(serviceID, resolved)
	if !decision.Allowed {
		return fmt.Errorf("service=%q: %w", serviceID, ErrRouteForbidden)
	}
	if err := s.gate.Authorize(decision.TargetService, ex.auth); err != nil {
		return err
	}

	ex.serviceID = decision.TargetService
	ex.rest = rest
	ex.route = route
	return nil
}

// dispatch はリクエストを転送先に転送する。
func (s *Server) dispatch(ctx context.Context, ex *exchange) error {
	resp, err := s.proxy.Forward(ctx, ex.req, ex.route, ex.rest, ex.auth)
	if err != nil {
		return err
	}
	ex.resp = resp
	return nil
}

// interceptResponse はレスポンスボディを記録する。失敗しない。
func (s *Server) interceptResponse(ctx context.Context, ex *exchange) error {
	s.interceptor.Intercept(ctx, ex.resp)
	return nil
}
