package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nao1215/edgegate/pkg/logging"
)

// Gateway はゲートウェイの設定。
type Gateway struct {
	Server ServerConfig `mapstructure:"server"`
	Auth   AuthConfig   `mapstructure:"auth"`
	// AllowedServices はルーティングを許可するサービスIDの一覧。
	AllowedServices []string `mapstructure:"allowed_services" validate:"dive,required"`
	// Routes はサービスIDごとの転送先。
	Routes map[string]RouteConfig `mapstructure:"routes" validate:"dive"`
	// Access はサービスIDごとに要求するロール。いずれか1つを持っていればよい。
	Access map[string][]string `mapstructure:"access"`
	CORS   CORSConfig          `mapstructure:"cors"`
	Token  TokenConfig         `mapstructure:"token"`
	Proxy  ProxyConfig         `mapstructure:"proxy"`
	Log    logging.Config      `mapstructure:"log"`
}

// AuthConfig は認証方式の設定。
type AuthConfig struct {
	// Mode は認証方式（open または local）。
	Mode string `mapstructure:"mode" validate:"required,oneof=open local"`
	// UsersFile はローカル認証のユーザー定義YAMLファイル。
	UsersFile string `mapstructure:"users_file"`
	// UsersDB はローカル認証のユーザーを格納するSQLiteのDSN。指定時はUsersFileより優先する。
	UsersDB string `mapstructure:"users_db"`
	// BcryptCost は存在しないユーザーの照合に使うダミーハッシュのコスト。
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
}

// RouteConfig は1サービスの転送先設定。
type RouteConfig struct {
	// URL は転送先のベースURL。
	URL string `mapstructure:"url" validate:"required,url"`
	// StripPrefix がtrueの場合、先頭のサービスIDを取り除いて転送する。
	StripPrefix bool `mapstructure:"strip_prefix"`
}

// ProxyConfig はバックエンドへの転送の設定。
type ProxyConfig struct {
	// Timeout は転送1回あたりのタイムアウト。
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// InterceptLogLimit はレスポンスボディをログに出力する最大バイト数。
	InterceptLogLimit int `mapstructure:"intercept_log_limit" validate:"min=0"`
}

// gatewayFlagKeys はゲートウェイのフラグ名と設定キーの対応。
var gatewayFlagKeys = map[string]string{
	"port":       "server.port",
	"auth-mode":  "auth.mode",
	"users-file": "auth.users_file",
	"users-db":   "auth.users_db",
	"log-level":  "log.level",
}

func setGatewayDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.mode", "local")
	v.SetDefault("auth.users_file", "users.yml")
	v.SetDefault("auth.users_db", "")
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("allowed_services", []string{"webapi"})
	v.SetDefault("routes", map[string]any{
		"webapi": map[string]any{"url": "http://localhost:8081", "strip_prefix": false},
	})
	v.SetDefault("access", map[string][]string{})

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("token.secret", defaultTokenSecret)
	v.SetDefault("token.ttl", time.Minute)

	v.SetDefault("proxy.timeout", 30*time.Second)
	v.SetDefault("proxy.intercept_log_limit", 4096)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "dev")
}

// LoadGateway はゲートウェイの設定を読み込む。
// fileが空の場合はカレントディレクトリの gateway.yaml を探し、なければデフォルト値を使う。
// flagsはnilでもよい。
func LoadGateway(file string, flags *pflag.FlagSet) (*Gateway, error) {
	var cfg Gateway
	src := source{
		name:      "gateway",
		envPrefix: "GATEWAY",
		file:      file,
		flags:     flags,
		flagKeys:  gatewayFlagKeys,
	}
	if err := load(src, setGatewayDefaults, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
