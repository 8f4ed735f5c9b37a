package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfig は資格情報の設定が不正であることを表す。起動時に検出された場合は致命的。
var ErrConfig = errors.New("資格情報の設定が不正です")

// Entry は資格情報の入力値。
type Entry struct {
	// ID はユーザーID。
	ID string
	// Secret はタグ付きのハッシュ済みシークレット。
	Secret string
	// Roles はロール名の一覧。
	Roles []string
}

// Store は読み込み済みの資格情報ディレクトリ。
// 読み込み後は読み取り専用のため、複数goroutineから同時に参照してよい。
type Store struct {
	// byID はユーザーIDからIdentityへの対応表。
	byID map[string]Identity
	// order は読み込み順のユーザーID。
	order []string
}

// New は入力値からStoreを生成する。IDが重複している場合はErrConfigを返す。
func New(entries []Entry) (*Store, error) {
	s := &Store{byID: make(map[string]Identity, len(entries))}
	for _, e := range entries {
		identity, err := newIdentity(e.ID, e.Secret, e.Roles)
		if err != nil {
			return nil, err
		}
		if _, dup := s.byID[identity.id]; dup {
			return nil, fmt.Errorf("%w: userId=%s が重複しています", ErrConfig, identity.id)
		}
		s.byID[identity.id] = identity
		s.order = append(s.order, identity.id)
	}
	return s, nil
}

// Find はユーザーIDに対応するIdentityを返す。
func (s *Store) Find(id string) (Identity, bool) {
	identity, ok := s.byID[id]
	return identity, ok
}

// Len は登録されているユーザー数を返す。
func (s *Store) Len() int { return len(s.order) }

// Identities は読み込み順のIdentity一覧を返す。
func (s *Store) Identities() []Identity {
	out := make([]Identity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// userEntry はusers.ymlの1ユーザー分の構造。
type userEntry struct {
	UserID   string   `yaml:"userId"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

// usersFile はusers.ymlのルート構造。
type usersFile struct {
	LocalAuth struct {
		Users []userEntry `yaml:"users"`
	} `yaml:"localauth"`
}

// Load はYAMLファイルから資格情報を読み込む。
// ファイルが存在しない場合は空のStoreを返す（ローカルユーザーなし）。
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path) //nolint:gosec // 設定で指定されたパス
	if errors.Is(err, fs.ErrNotExist) {
		return New(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("資格情報ファイルの読み込みに失敗: %w", err)
	}
	return Parse(data)
}

// Parse はYAML形式の資格情報を解析する。
func Parse(data []byte) (*Store, error) {
	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: YAMLの解析に失敗: %v", ErrConfig, err)
	}

	entries := make([]Entry, 0, len(f.LocalAuth.Users))
	for _, u := range f.LocalAuth.Users {
		entries = append(entries, Entry{ID: u.UserID, Secret: u.Password, Roles: u.Roles})
	}
	return New(entries)
}
