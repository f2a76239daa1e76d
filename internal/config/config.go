// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"catalog/internal/apperrors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Supported text generation providers.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Config holds every runtime setting of the catalog service.
type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL string
	RedisURL    string
	CacheTTL    time.Duration

	LLMProvider  string
	LLMTimeout   time.Duration
	GroqAPIKey   string
	GroqBaseURL  string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "catalog.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("LLM_PROVIDER", ProviderGroq)
	v.SetDefault("LLM_TIMEOUT", "30s")
	v.SetDefault("GROQ_API_KEY", "")
	v.SetDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("GROQ_MODEL", "llama-3.1-8b-instant")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("HTTP_READ_TIMEOUT", "15s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "60s")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from v and validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:           strings.ToLower(v.GetString("APP_ENV")),
		AppPort:          v.GetString("APP_PORT"),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseDriver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           v.GetDuration("JWT_TTL"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RedisURL:         v.GetString("REDIS_URL"),
		CacheTTL:         v.GetDuration("CACHE_TTL"),
		LLMProvider:      strings.ToLower(v.GetString("LLM_PROVIDER")),
		LLMTimeout:       v.GetDuration("LLM_TIMEOUT"),
		GroqAPIKey:       v.GetString("GROQ_API_KEY"),
		GroqBaseURL:      strings.TrimRight(v.GetString("GROQ_BASE_URL"), "/"),
		GroqModel:        v.GetString("GROQ_MODEL"),
		GeminiAPIKey:     v.GetString("GEMINI_API_KEY"),
		GeminiModel:      v.GetString("GEMINI_MODEL"),
		HTTPReadTimeout:  v.GetDuration("HTTP_READ_TIMEOUT"),
		HTTPWriteTimeout: v.GetDuration("HTTP_WRITE_TIMEOUT"),
	}
	if cfg.AppPort != "" && !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseDSN == "" {
			return apperrors.Configuration(fmt.Sprintf("DATABASE_DSN is required for driver %q", c.DatabaseDriver))
		}
	case DriverMemory:
	default:
		return apperrors.Configuration(fmt.Sprintf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	switch c.LLMProvider {
	case ProviderGroq, ProviderGemini:
	default:
		return apperrors.Configuration(fmt.Sprintf("unsupported LLM_PROVIDER %q", c.LLMProvider))
	}

	if c.JWTSecret == "" && !c.IsDevelopment() {
		return apperrors.Configuration("JWT_SECRET is required outside development")
	}
	if c.JWTTTL <= 0 {
		return apperrors.Configuration("JWT_TTL must be positive")
	}
	if c.LLMTimeout <= 0 {
		return apperrors.Configuration("LLM_TIMEOUT must be positive")
	}
	if c.CacheTTL < 0 {
		return apperrors.Configuration("CACHE_TTL must not be negative")
	}
	return nil
}

// GeneratorAPIKey returns the API key of the configured provider.
func (c *Config) GeneratorAPIKey() string {
	if c.LLMProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.GroqAPIKey
}
