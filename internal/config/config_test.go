package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "AI_PROVIDER", "GENERATION_TIMEOUT", "TRANSCRIPTION_TIMEOUT", "SPEECH_PROVIDER",
		"SESSION_STORE", "SESSION_TTL", "OTEL_ENABLED", "GEMINI_MODEL", "ASSEMBLYAI_POLL_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Speech.Timeout)
	assert.Equal(t, "assemblyai", cfg.Speech.Provider)
	assert.Equal(t, time.Second, cfg.Speech.PollInterval)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("AI_PROVIDER", "ark")
	t.Setenv("GENERATION_TIMEOUT", "45")
	t.Setenv("TRANSCRIPTION_TIMEOUT", "1m30s")
	t.Setenv("SPEECH_PROVIDER", "volcengine")
	t.Setenv("SPEECH_CONCURRENT_MODE", "true")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "ark", cfg.AI.Provider)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Speech.Timeout)
	assert.Equal(t, "volcengine", cfg.Speech.Provider)
	assert.True(t, cfg.Speech.ConcurrentMode)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "redis://cache:6379/1", cfg.Session.RedisURL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":               "eighty",
		"AI_PROVIDER":        "openai",
		"GENERATION_TIMEOUT": "soon",
		"SPEECH_PROVIDER":    "whisper",
		"SESSION_STORE":      "sqlite",
		"OTEL_ENABLED":       "maybe",
		"SESSION_TTL":        "-5s",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestAIConfigEnabled(t *testing.T) {
	assert.False(t, AIConfig{}.Enabled())
	assert.True(t, AIConfig{Model: "ep-1", APIKey: "k"}.Enabled())
	assert.True(t, AIConfig{Model: "ep-1", AccessKey: "a", SecretKey: "s"}.Enabled())
	assert.False(t, AIConfig{APIKey: "k"}.Enabled())
}
