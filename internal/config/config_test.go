package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Deehands24/laymen-terms/internal/quota"
	translationservice "github.com/Deehands24/laymen-terms/internal/translation/service"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "DATABASE_URL", "JWT_TTL_HOURS", "TRANSLATION_MODELS",
		"QUOTA_FAILURE_POLICY", "REMAINING_STRATEGY", "RATE_LIMIT_PER_MINUTE", "MOCK_DATA_FALLBACK",
		"HISTORY_REQUIRE_AUTH",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "llama3-70b-8192", cfg.DefaultModel)
	assert.Equal(t, "llama3-8b-8192", cfg.FallbackModel)
	assert.Len(t, cfg.Models, 4)
	assert.Equal(t, string(quota.FailOpen), cfg.QuotaFailurePolicy)
	assert.Equal(t, translationservice.RemainingLocal, cfg.RemainingStrategy)
	assert.True(t, cfg.MockDataFallback)
	assert.False(t, cfg.HistoryRequiresAuth)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TRANSLATION_MODELS", " a , b,,c ")
	t.Setenv("QUOTA_FAILURE_POLICY", "FAIL-CLOSED")
	t.Setenv("REMAINING_STRATEGY", "bogus")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("MOCK_DATA_FALLBACK", "false")
	t.Setenv("HISTORY_REQUIRE_AUTH", "true")

	cfg := Load()

	assert.Equal(t, []string{"a", "b", "c"}, cfg.Models)
	assert.Equal(t, string(quota.FailClosed), cfg.QuotaFailurePolicy)
	assert.Equal(t, translationservice.RemainingLocal, cfg.RemainingStrategy)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.False(t, cfg.MockDataFallback)
	assert.True(t, cfg.HistoryRequiresAuth)
}

func TestLoadDevSecret(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()

	assert.NotEmpty(t, cfg.JWTSecret)
}
