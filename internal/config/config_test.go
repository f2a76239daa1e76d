package config_test

import (
	"testing"
	"time"

	"catalog/internal/apperrors"
	"catalog/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseViper() *viper.Viper {
	v := viper.New()
	v.Set("APP_ENV", "development")
	v.Set("APP_PORT", "8080")
	v.Set("DATABASE_DRIVER", "sqlite")
	v.Set("DATABASE_DSN", ":memory:")
	v.Set("JWT_TTL", "1h")
	v.Set("CACHE_TTL", "5m")
	v.Set("LLM_PROVIDER", "groq")
	v.Set("LLM_TIMEOUT", "10s")
	v.Set("GROQ_BASE_URL", "https://api.groq.com/openai/v1/")
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(baseViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GroqBaseURL)
	assert.True(t, cfg.IsDevelopment())
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DATABASE_DRIVER", "mongo"},
		{"unknown provider", "LLM_PROVIDER", "openai"},
		{"zero jwt ttl", "JWT_TTL", "0s"},
		{"missing dsn", "DATABASE_DSN", ""},
		{"secret outside development", "APP_ENV", "production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := baseViper()
			v.Set(tt.key, tt.val)

			_, err := config.FromViper(v)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}
}

func TestFromViper_MemoryDriverNeedsNoDSN(t *testing.T) {
	v := baseViper()
	v.Set("DATABASE_DRIVER", "memory")
	v.Set("DATABASE_DSN", "")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.DatabaseDriver)
}

func TestGeneratorAPIKey(t *testing.T) {
	v := baseViper()
	v.Set("GROQ_API_KEY", "groq-key")
	v.Set("GEMINI_API_KEY", "gemini-key")
	v.Set("LLM_PROVIDER", "gemini")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.GeneratorAPIKey())
}
