package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/edgegate/internal/credential"
)

// ErrRejected は認証に失敗したことを表す。
var ErrRejected = errors.New("認証に失敗しました")

// RejectReason は認証失敗時の理由。ユーザーIDの存在有無によらず同じ文言を使う。
const RejectReason = "unknown id or bad secret"

// Mode は認証方式。
type Mode string

const (
	// ModeOpen は認証を行わない方式。
	ModeOpen Mode = "open"
	// ModeLocal はローカルの資格情報ディレクトリで認証する方式。
	ModeLocal Mode = "local"
)

// ParseMode は文字列をModeに変換する。
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOpen, ModeLocal:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("不明な認証方式: %q", s)
	}
}

// Result は1リクエスト分の認証結果。
type Result struct {
	// Authenticated は認証に成功したかどうか。
	Authenticated bool
	// Identity は認証されたユーザー。open方式では存在しない。
	Identity *credential.Identity
	// Roles は認証されたユーザーのロール。
	Roles []string
	// Reason は失敗理由。
	Reason string
}

// authenticated は成功結果を生成する。
func authenticated(identity *credential.Identity) Result {
	r := Result{Authenticated: true, Identity: identity}
	if identity != nil {
		r.Roles = identity.Roles()
	}
	return r
}

// rejected は失敗結果を生成する。
func rejected() Result {
	return Result{Reason: RejectReason}
}

// Err は失敗時にErrRejectedを返す。成功時はnil。
func (r Result) Err() error {
	if r.Authenticated {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRejected, r.Reason)
}

// Subject は認証されたユーザーIDを返す。open方式では "anonymous"。
func (r Result) Subject() string {
	if r.Identity == nil {
		return "anonymous"
	}
	return r.Identity.ID()
}

// Authenticator はリクエストの資格情報を検証する。
type Authenticator struct {
	// mode は有効な認証方式。
	mode Mode
	// store はlocal方式で使用する資格情報ディレクトリ。
	store *credential.Store
	// dummyHash は存在しないユーザーIDの照合に使う捨てハッシュ。
	dummyHash []byte
}

// NewOpen はopen方式のAuthenticatorを生成する。
func NewOpen() *Authenticator {
	return &Authenticator{mode: ModeOpen}
}

// NewLocal はlocal方式のAuthenticatorを生成する。
// 登録されているユーザーのIDとロールをログに出力する。
func NewLocal(store *credential.Store, cost int, logger *slog.Logger) (*Authenticator, error) {
	if store == nil {
		return nil, errors.New("資格情報ディレクトリが指定されていません")
	}
	if cost == 0 {
		cost = credential.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}

	// 照合用ハッシュは登録済みハッシュの最大コストに合わせる
	dummyCost, mixed := storedCost(store, cost)
	if mixed {
		logger.Warn("ローカルユーザーのハッシュコストが揃っていません。照合時間が揃うよう再ハッシュしてください",
			"dummy_cost", dummyCost)
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("乱数の生成に失敗: %w", err)
	}
	// bcryptは72バイトまでしか扱わないため先頭のみ使う
	dummy, err := bcrypt.GenerateFromPassword(seed[:16], dummyCost)
	if err != nil {
		return nil, fmt.Errorf("照合用ハッシュの生成に失敗: %w", err)
	}

	if store.Len() == 0 {
		logger.Warn("ローカルユーザーが定義されていません。users.ymlが存在するか確認してください")
	} else {
		logger.Info("ローカルユーザーディレクトリを構成します", "count", store.Len())
		for _, identity := range store.Identities() {
			logger.Info("ローカルユーザー", "user_id", identity.ID(), "roles", identity.Roles())
		}
	}

	return &Authenticator{mode: ModeLocal, store: store, dummyHash: dummy}, nil
}

// storedCost は登録済みハッシュの最大コストを返す。floorを下回ることはない。
// mixedは登録済みハッシュのコストが複数種類ある場合にtrueになる。
func storedCost(store *credential.Store, floor int) (cost int, mixed bool) {
	cost = floor
	seen := -1
	for _, identity := range store.Identities() {
		c := identity.Cost()
		if seen >= 0 && c != seen {
			mixed = true
		}
		seen = c
		if c > cost {
			cost = c
		}
	}
	return cost, mixed
}

// New は設定された方式のAuthenticatorを生成する。
func New(mode Mode, store *credential.Store, cost int, logger *slog.Logger) (*Authenticator, error) {
	switch mode {
	case ModeOpen:
		return NewOpen(), nil
	case ModeLocal:
		return NewLocal(store, cost, logger)
	default:
		return nil, fmt.Errorf("不明な認証方式: %q", mode)
	}
}

// Mode は有効な認証方式を返す。
func (a *Authenticator) Mode() Mode { return a.mode }

// RequiresCredentials は資格情報の提示が必要な方式かどうかを返す。
func (a *Authenticator) RequiresCredentials() bool { return a.mode == ModeLocal }

// Authenticate はユーザーIDとシークレットを検証する。
// 存在しないユーザーIDとシークレット不一致は同じ結果になり、
// どちらの場合もbcryptの照合を1回行う。
func (a *Authenticator) Authenticate(id, secret string) Result {
	switch a.mode {
	case ModeOpen:
		return authenticated(nil)
	case ModeLocal:
		identity, ok := a.store.Find(id)
		if !ok {
			_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(secret))
			return rejected()
		}
		if err := identity.CompareSecret(secret); err != nil {
			return rejected()
		}
		return authenticated(&identity)
	default:
		return rejected()
	}
}
