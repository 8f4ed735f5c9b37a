package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	// Port はリッスンポート。
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// Addr はリッスンアドレスを返す。
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// CORSConfig はCORSの設定。
type CORSConfig struct {
	// AllowedOrigins は許可するオリジン。"*" ですべて許可する。
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// TokenConfig はゲートウェイが発行する内部IDトークンの設定。
// Secretが空の場合、ゲートウェイはトークンを発行せず、webapiは検証しない。
type TokenConfig struct {
	// Secret はHS256の署名鍵。
	Secret string `mapstructure:"secret"`
	// TTL はトークンの有効期間。
	TTL time.Duration `mapstructure:"ttl" validate:"min=0"`
}

// defaultTokenSecret は開発用の署名鍵。
const defaultTokenSecret = "dev-secret-key"

// source は設定の読み込み元。
type source struct {
	// name はファイル未指定時に探す設定ファイル名（拡張子なし）。
	name string
	// envPrefix は環境変数のプレフィックス。
	envPrefix string
	// file は明示的に指定された設定ファイルのパス。
	file string
	// flags はバインドするフラグ。nilの場合はバインドしない。
	flags *pflag.FlagSet
	// flagKeys はフラグ名から設定キーへの対応。
	flagKeys map[string]string
}

// load はviperで設定を読み込み、outへデコードして検証する。
func load(src source, setDefaults func(*viper.Viper), out any) error {
	v := viper.New()
	setDefaults(v)

	if src.file != "" {
		v.SetConfigFile(src.file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	} else {
		v.SetConfigName(src.name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
			}
		}
	}

	v.SetEnvPrefix(src.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if src.flags != nil {
		bindFlags(v, src.flags, src.flagKeys)
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("設定のデコードに失敗: %w", err)
	}
	if err := validator.New().Struct(out); err != nil {
		return fmt.Errorf("設定の検証に失敗: %w", err)
	}
	return nil
}

// bindFlags は明示的に指定されたフラグだけを設定キーにバインドする。
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := keys[f.Name]
		if !ok || !f.Changed {
			return
		}
		_ = v.BindPFlag(key, f)
	})
}
