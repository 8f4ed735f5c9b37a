package gateway

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nao1215/edgegate/internal/auth"
)

// ErrRouteForbidden はルーティングが許可されていないサービスへのリクエストを表す。
var ErrRouteForbidden = errors.New("ルーティングが許可されていないサービスです")

// ErrInsufficientRole はサービスが要求するロールを持っていないことを表す。
// 認証失敗の一種として扱う。
var ErrInsufficientRole = fmt.Errorf("%w: 必要なロールを持っていません", auth.ErrRejected)

// DefaultAllowedServices は許可リスト未設定時のサービスID。
var DefaultAllowedServices = []string{"webapi"}

// RouteDecision はゲートの判定結果。
type RouteDecision struct {
	// TargetService は解決されたサービスID。解決できなかった場合は空。
	TargetService string
	// Allowed はバックエンドへの転送を許可するかどうか。
	Allowed bool
}

// Gate はサービスIDの許可リストとサービスごとの要求ロールを保持する。
type Gate struct {
	allowed []string
	access  map[string][]string
}

// NewGate は新しいGateを生成する。allowedが空の場合はDefaultAllowedServicesを使う。
func NewGate(allowed []string, access map[string][]string) *Gate {
	if len(allowed) == 0 {
		allowed = DefaultAllowedServices
	}
	list := make([]string, 0, len(allowed))
	for _, id := range allowed {
		if id != "" && !slices.Contains(list, id) {
			list = append(list, id)
		}
	}

	acc := make(map[string][]string, len(access))
	for id, roles := range access {
		if len(roles) > 0 {
			acc[id] = slices.Clone(roles)
		}
	}
	return &Gate{allowed: list, access: acc}
}

// Admit は解決済みのサービスIDを許可リストと照合する。
// 解決できなかったサービスと許可リストにないサービスは拒否する。
func (g *Gate) Admit(serviceID string, resolved bool) RouteDecision {
	if !resolved || serviceID == "" {
		return RouteDecision{}
	}
	return RouteDecision{
		TargetService: serviceID,
		Allowed:       slices.Contains(g.allowed, serviceID),
	}
}

// Authorize は認証済みユーザーがサービスの要求ロールを持つかを検証する。
// open方式（ユーザーなし）とロール要求のないサービスは常に許可する。
func (g *Gate) Authorize(serviceID string, result auth.Result) error {
	required := g.access[serviceID]
	if len(required) == 0 || result.Identity == nil {
		return nil
	}
	if result.Identity.HasAnyRole(required...) {
		return nil
	}
	return fmt.Errorf("service=%s: %w", serviceID, ErrInsufficientRole)
}

// Allowed は許可リストのコピーを返す。
func (g *Gate) Allowed() []string {
	return slices.Clone(g.allowed)
}

// RequiredRoles はサービスが要求するロールを返す。
func (g *Gate) RequiredRoles(serviceID string) []string {
	return slices.Clone(g.access[serviceID])
}
