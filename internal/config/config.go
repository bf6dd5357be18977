package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Flash      FlashConfig      `yaml:"flash" mapstructure:"flash"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Prediction PredictionConfig `yaml:"prediction" mapstructure:"prediction"`
	Lookups    LookupsConfig    `yaml:"lookups" mapstructure:"lookups"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FlashConfig holds prediction API settings.
type FlashConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// Timeout returns the request timeout as a duration.
func (c FlashConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ResilienceConfig tunes retries and the circuit breaker around the
// prediction API.
type ResilienceConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// PredictionConfig controls submission behavior.
type PredictionConfig struct {
	// FallbackEnabled substitutes a static result when the API is unreachable.
	FallbackEnabled bool `yaml:"fallback_enabled" mapstructure:"fallback_enabled"`
}

// LookupsConfig points at an optional enum lookup override file.
type LookupsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// BatchConfig configures batch scoring.
type BatchConfig struct {
	MaxConcurrent    int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	FetchMaxRetries  int `yaml:"fetch_max_retries" mapstructure:"fetch_max_retries"`
}

// FetchTimeout returns the remote input download timeout as a Duration.
func (c BatchConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// MonitoringConfig configures degraded-mode alerting while serving.
type MonitoringConfig struct {
	Enabled               bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	DegradedRateThreshold float64 `yaml:"degraded_rate_threshold" mapstructure:"degraded_rate_threshold"`
	MinSubmissions        int     `yaml:"min_submissions" mapstructure:"min_submissions"`
	LookbackWindowHours   int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "flash.db")
	v.SetDefault("flash.base_url", "http://localhost:8000")
	v.SetDefault("flash.api_key", "")
	v.SetDefault("flash.timeout_secs", 30)
	v.SetDefault("flash.rate_limit", 5.0)
	v.SetDefault("flash.burst", 5)
	v.SetDefault("resilience.max_attempts", 3)
	v.SetDefault("resilience.initial_backoff_ms", 250)
	v.SetDefault("resilience.max_backoff_ms", 5000)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)
	v.SetDefault("prediction.fallback_enabled", true)
	v.SetDefault("lookups.path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("batch.max_concurrent", 4)
	v.SetDefault("batch.fetch_timeout_secs", 60)
	v.SetDefault("batch.fetch_max_retries", 3)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.degraded_rate_threshold", 0.25)
	v.SetDefault("monitoring.min_submissions", 5)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file is optional.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// Validation modes, one per command family.
const (
	ModeOffline = "offline" // validate, transform
	ModeStore   = "store"   // drafts, migrate
	ModePredict = "predict"
	ModeBatch   = "batch"
	ModeServe   = "serve"
)

// Validate checks the settings a command mode needs and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	needStore := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}
	needFlash := func() {
		if c.Flash.BaseURL == "" {
			errs = append(errs, "flash.base_url is required")
		}
		if c.Resilience.MaxAttempts < 0 {
			errs = append(errs, "resilience.max_attempts must be >= 0")
		}
	}

	switch mode {
	case ModeOffline:
	case ModeStore:
		needStore()
	case ModePredict:
		needStore()
		needFlash()
	case ModeBatch:
		needStore()
		needFlash()
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 50 {
			errs = append(errs, "batch.max_concurrent must be between 1 and 50")
		}
	case ModeServe:
		needStore()
		needFlash()
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Monitoring.Enabled {
			if c.Monitoring.DegradedRateThreshold <= 0 || c.Monitoring.DegradedRateThreshold > 1 {
				errs = append(errs, "monitoring.degraded_rate_threshold must be in (0, 1]")
			}
			if c.Monitoring.LookbackWindowHours <= 0 {
				errs = append(errs, "monitoring.lookback_window_hours must be > 0")
			}
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
