package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nao1215/edgegate/pkg/logging"
)

// WebAPI はwebapiサービスの設定。
type WebAPI struct {
	Server ServerConfig `mapstructure:"server"`
	// Items はitemsサービスへの接続設定。
	Items BackendConfig `mapstructure:"items"`
	// Reviews はreviewsサービスへの接続設定。
	Reviews BackendConfig `mapstructure:"reviews"`
	// ReviewType はアイテムに紐づくレビューの種別。
	ReviewType string         `mapstructure:"review_type" validate:"required"`
	CORS       CORSConfig     `mapstructure:"cors"`
	Token      TokenConfig    `mapstructure:"token"`
	Log        logging.Config `mapstructure:"log"`
}

// BackendConfig はバックエンド1つへの接続設定。
type BackendConfig struct {
	// URL はバックエンドのベースURL。
	URL string `mapstructure:"url" validate:"required,url"`
	// Timeout は呼び出し1回あたりのタイムアウト。
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// Fallback は失敗時のフォールバック方針（stub または empty）。
	Fallback string `mapstructure:"fallback" validate:"required,oneof=stub empty"`
}

// webapiFlagKeys はwebapiのフラグ名と設定キーの対応。
var webapiFlagKeys = map[string]string{
	"port":        "server.port",
	"items-url":   "items.url",
	"reviews-url": "reviews.url",
	"log-level":   "log.level",
}

func setWebAPIDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("items.url", "http://localhost:8082")
	v.SetDefault("items.timeout", 3*time.Second)
	v.SetDefault("items.fallback", "stub")

	v.SetDefault("reviews.url", "http://localhost:8083")
	v.SetDefault("reviews.timeout", 3*time.Second)
	v.SetDefault("reviews.fallback", "empty")

	v.SetDefault("review_type", "item")

	v.SetDefault("cors.allowed_origins", []string{})

	v.SetDefault("token.secret", defaultTokenSecret)
	v.SetDefault("token.ttl", time.Duration(0))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "dev")
}

// LoadWebAPI はwebapiの設定を読み込む。
// fileが空の場合はカレントディレクトリの webapi.yaml を探し、なければデフォルト値を使う。
func LoadWebAPI(file string, flags *pflag.FlagSet) (*WebAPI, error) {
	var cfg WebAPI
	src := source{
		name:      "webapi",
		envPrefix: "WEBAPI",
		file:      file,
		flags:     flags,
		flagKeys:  webapiFlagKeys,
	}
	if err := load(src, setWebAPIDefaults, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
