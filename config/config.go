package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

/* Config is resolved once when a client is built
 * Precedence: explicit override > environment > config file > default
 */

const (
	KeyAPIKey     = "POSTHOOK_API_KEY"
	KeySigningKey = "POSTHOOK_SIGNING_KEY"
	KeyBaseURL    = "POSTHOOK_BASE_URL"
	KeyTimeout    = "POSTHOOK_TIMEOUT"

	DefaultBaseURL = "https://api.posthook.io"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	APIKey     string        `mapstructure:"POSTHOOK_API_KEY"`
	SigningKey string        `mapstructure:"POSTHOOK_SIGNING_KEY"`
	BaseURL    string        `mapstructure:"POSTHOOK_BASE_URL"`
	Timeout    time.Duration `mapstructure:"POSTHOOK_TIMEOUT"`
}

// Overrides holds values passed explicitly by the caller; zero values are ignored
type Overrides struct {
	APIKey     string
	SigningKey string
	BaseURL    string
	Timeout    time.Duration
	// ConfigFile is an optional TOML, YAML or .env file
	ConfigFile string
}

func Resolve(o Overrides) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeySigningKey, "")
	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.AutomaticEnv()

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if strings.HasSuffix(o.ConfigFile, ".env") {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if o.APIKey != "" {
		v.Set(KeyAPIKey, o.APIKey)
	}
	if o.SigningKey != "" {
		v.Set(KeySigningKey, o.SigningKey)
	}
	if o.BaseURL != "" {
		v.Set(KeyBaseURL, o.BaseURL)
	}
	if o.Timeout > 0 {
		v.Set(KeyTimeout, o.Timeout)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &cfg, nil
}
