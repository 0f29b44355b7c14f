package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HTTP_ADDR", "DATABASE_URL", "ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
		"QUESTIONNAIRE_FILE", "RATE_LIMIT_PER_MINUTE", "LLM_PROVIDER", "OPENAI_API_KEY",
		"MODEL_API_KEY", "OPENAI_BASE_URL", "GEMINI_API_KEY", "GEMINI_BASE_URL", "LLM_MODEL",
		"LLM_TEMPERATURE", "LLM_MAX_TOOL_ROUNDS", "LLM_TIMEOUT", "TOOLS_OPENAPI_URL",
		"TOOLS_BASE_URL", "FDA_ENABLED", "FDA_API_KEY", "FDA_BASE_URL",
		"TRUST_PROXY", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_MAX_CONN_LIFETIME", "DB_MAX_CONN_IDLE_TIME",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, ProviderNone, cfg.LLM.Provider)
	assert.Equal(t, 10, cfg.LLM.MaxToolRounds)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-6)
	assert.True(t, cfg.Tools.FDAEnabled)
	assert.Equal(t, "https://api.fda.gov/drug", cfg.Tools.FDABaseURL)
	assert.Equal(t, PoolConfig{MaxConns: 10, MinConns: 1, MaxConnLifetime: 30 * time.Minute, MaxConnIdleTime: 5 * time.Minute}, cfg.DatabasePool)
}

func TestFromEnv_DatabasePool(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("DB_MIN_CONNS", "5")
	t.Setenv("DB_MAX_CONN_LIFETIME", "1h")
	t.Setenv("DB_MAX_CONN_IDLE_TIME", "not-a-duration")

	cfg := FromEnv()
	assert.Equal(t, int32(25), cfg.DatabasePool.MaxConns)
	assert.Equal(t, int32(5), cfg.DatabasePool.MinConns)
	assert.Equal(t, time.Hour, cfg.DatabasePool.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, cfg.DatabasePool.MaxConnIdleTime)
}

func TestFromEnv_ProviderInference(t *testing.T) {
	t.Run("legacy model key selects openai", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MODEL_API_KEY", "sk-legacy")
		cfg := FromEnv()
		assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
		assert.Equal(t, "sk-legacy", cfg.LLM.APIKey)
		assert.Equal(t, "gpt-4", cfg.LLM.Model)
	})

	t.Run("gemini key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")
		cfg := FromEnv()
		assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
		assert.Equal(t, "g-key", cfg.LLM.APIKey)
		assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	})

	t.Run("explicit provider wins", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk")
		t.Setenv("LLM_PROVIDER", "None")
		cfg := FromEnv()
		assert.Equal(t, ProviderNone, cfg.LLM.Provider)
		assert.Empty(t, cfg.LLM.APIKey)
	})
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("LLM_TIMEOUT", "30s")
	t.Setenv("LLM_MAX_TOOL_ROUNDS", "0")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("TOOLS_OPENAPI_URL", "http://localhost:8001/openapi.json")
	t.Setenv("FDA_ENABLED", "false")

	cfg := FromEnv()
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.LLM.MaxToolRounds)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
	assert.Equal(t, "http://localhost:8001", cfg.Tools.BaseURL)
	assert.False(t, cfg.Tools.FDAEnabled)
}
