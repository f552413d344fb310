package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port             string        `mapstructure:"port" validate:"required"`
	Env              string        `mapstructure:"env"`
	CORSAllowOrigins string        `mapstructure:"cors_allow_origins"`
	BackendURL       string        `mapstructure:"reviewsim_api_url" validate:"required,url"`
	BackendToken     string        `mapstructure:"reviewsim_api_token"`
	BackendTimeout   time.Duration `mapstructure:"reviewsim_api_timeout" validate:"gt=0"`
	Model            string        `mapstructure:"reviewsim_model"`
	DatabaseURL      string        `mapstructure:"database_url"`
	SessionTTL       time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	SweepInterval    time.Duration `mapstructure:"session_sweep_interval" validate:"gt=0"`
	LogLevel         string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	// GenerationPerMinute and GenerationBurst bound backend-calling requests per session.
	GenerationPerMinute float64 `mapstructure:"generation_rate_per_minute" validate:"gte=0"`
	GenerationBurst     int     `mapstructure:"generation_burst" validate:"gte=0"`
}

var defaults = map[string]any{
	"port":                       "8080",
	"env":                        "dev",
	"cors_allow_origins":         "http://localhost:5173",
	"reviewsim_api_url":          "http://localhost:5000/api",
	"reviewsim_api_token":        "",
	"reviewsim_api_timeout":      "120s",
	"reviewsim_model":            "",
	"database_url":               "",
	"session_ttl":                "2h",
	"session_sweep_interval":     "5m",
	"log_level":                  "info",
	"generation_rate_per_minute": 6,
	"generation_burst":           3,
}

// Load reads configuration from defaults, an optional config.yaml and the
// environment, in increasing precedence. Local .env files are loaded first
// without overriding variables that are already set.
func Load() (Config, error) {
	for _, path := range []string{".env", "cmd/.env"} {
		// missing files are fine
		_ = godotenv.Load(path)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// AllowedOrigins splits CORS_ALLOW_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	return splitAndTrim(c.CORSAllowOrigins)
}

// Production reports whether the service runs in production.
func (c Config) Production() bool {
	return c.Env == "production"
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
