package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "SAVORIA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Push    PushConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env      string `envconfig:"SAVORIA_APP_ENV" default:"dev"`
	LogLevel string `envconfig:"SAVORIA_LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL        string        `envconfig:"SAVORIA_API_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"SAVORIA_API_REQUEST_TIMEOUT" default:"15s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api base url must be http(s), got %q", a.BaseURL)
	}
	if a.RequestTimeout <= 0 {
		return fmt.Errorf("api request timeout must be positive")
	}
	return nil
}

type StorageConfig struct {
	Path string `envconfig:"SAVORIA_STORAGE_PATH" default:"storefront.db"`
}

type PushConfig struct {
	Enabled  bool   `envconfig:"SAVORIA_PUSH_ENABLED" default:"true"`
	Platform string `envconfig:"SAVORIA_PUSH_PLATFORM" default:"android"`
}
