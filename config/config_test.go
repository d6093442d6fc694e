package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceloop/core"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.InDelta(t, 0.7, float64(cfg.Temperature), 0.0001)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, 50, cfg.MaxTurns)
	assert.Equal(t, 10, cfg.MinSentenceChars)
	assert.Equal(t, "NO_REPLY", cfg.AbortMarker)
	assert.Equal(t, "openai", cfg.TTSProvider)
	assert.Equal(t, core.WAV, cfg.TTSFormat)
	assert.Equal(t, "nova-2", cfg.STTModel)
}

func TestLoadRequiresLLMKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadKeyAliases(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_API_KEY", "sk-alias")
	t.Setenv("LLM_API_ENDPOINT", "http://localhost:1234/v1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-alias", cfg.LLMAPIKey)
	assert.Equal(t, "http://localhost:1234/v1", cfg.LLMBaseURL)
}

func TestLoadAliasPrecedence(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-primary")
	t.Setenv("LLM_API_KEY", "sk-alias")
	t.Setenv("LLM_API_BASE_URL", "http://primary/v1")
	t.Setenv("LLM_API_ENDPOINT", "http://alias/v1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-primary", cfg.LLMAPIKey)
	assert.Equal(t, "http://primary/v1", cfg.LLMBaseURL)
}

func TestLoadElevenLabsProviderNeedsKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TTS_PROVIDER", "elevenlabs")
	t.Setenv("ELEVENLABS_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ELEVENLABS_API_KEY")

	t.Setenv("ELEVENLABS_API_KEY", "el-test")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "elevenlabs", cfg.TTSProvider)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TTS_PROVIDER", "chanting")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadFormat(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TTS_FORMAT", "ogg")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadParsesNumericOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "9001")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("MAX_CONVERSATION_TURNS", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Port)
	assert.InDelta(t, 0.2, float64(cfg.Temperature), 0.0001)
	assert.Equal(t, 12, cfg.MaxTurns)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
}
