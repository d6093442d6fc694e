package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"voiceloop/core"
)

// Config is the full runtime configuration, assembled from environment
// variables. Call Load after the process environment is settled (after
// godotenv, if used).
type Config struct {
	Port int

	// Language model
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	Temperature float32
	MaxTokens   int

	// Conversation
	SystemPrompt     string
	Greeting         string
	MaxTurns         int
	MinSentenceChars int
	AbortMarker      string

	// Speech synthesis
	TTSProvider      string
	TTSFormat        core.AudioEncodingFormat
	OpenAITTSVoice   string
	OpenAITTSModel   string
	ElevenLabsAPIKey string
	ElevenLabsVoice  string
	ElevenLabsModel  string

	// Speech recognition
	DeepgramAPIKey  string
	STTModel        string
	STTLanguage     string
	STTSampleRate   int
	STTEndpointing  int
	STTUtteranceEnd int
}

// Load reads the configuration from the environment. Aliases exist for keys
// with more than one conventional name; the first non-empty value wins.
func Load() (*Config, error) {
	format, err := core.ParseAudioEncodingFormat(strings.ToLower(getEnv("TTS_FORMAT", "wav")))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{
		Port: getEnvAsInt("PORT", 8000),

		LLMAPIKey:  firstNonEmpty("OPENAI_API_KEY", "LLM_API_KEY"),
		LLMBaseURL: firstNonEmpty("LLM_API_BASE_URL", "LLM_API_ENDPOINT"),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),

		Temperature: float32(getEnvAsFloat("LLM_TEMPERATURE", 0.7)),
		MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 2048),

		SystemPrompt:     getEnv("SYSTEM_PROMPT", ""),
		Greeting:         getEnv("GREETING_PROMPT", ""),
		MaxTurns:         getEnvAsInt("MAX_CONVERSATION_TURNS", 50),
		MinSentenceChars: getEnvAsInt("MIN_SENTENCE_CHARS", 10),
		AbortMarker:      getEnv("ABORT_MARKER", "NO_REPLY"),

		TTSProvider:      strings.ToLower(getEnv("TTS_PROVIDER", "openai")),
		TTSFormat:        format,
		OpenAITTSVoice:   getEnv("OPENAI_TTS_VOICE", "alloy"),
		OpenAITTSModel:   getEnv("OPENAI_TTS_MODEL", "tts-1"),
		ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoice:  getEnv("ELEVENLABS_VOICE_ID", ""),
		ElevenLabsModel:  getEnv("ELEVENLABS_MODEL_ID", ""),

		DeepgramAPIKey:  getEnv("DEEPGRAM_API_KEY", ""),
		STTModel:        getEnv("STT_MODEL", "nova-2"),
		STTLanguage:     getEnv("STT_LANGUAGE", ""),
		STTSampleRate:   getEnvAsInt("STT_SAMPLE_RATE", 16000),
		STTEndpointing:  getEnvAsInt("STT_ENDPOINTING_MS", 300),
		STTUtteranceEnd: getEnvAsInt("STT_UTTERANCE_END_MS", 1000),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LLMAPIKey == "" {
		return errors.New("config: OPENAI_API_KEY (or LLM_API_KEY) is required")
	}
	switch c.TTSProvider {
	case "openai":
	case "elevenlabs":
		if c.ElevenLabsAPIKey == "" {
			return errors.New("config: ELEVENLABS_API_KEY is required for the elevenlabs provider")
		}
	default:
		return fmt.Errorf("config: unknown TTS provider %q", c.TTSProvider)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// firstNonEmpty returns the value of the first listed variable that is set
// and non-empty.
func firstNonEmpty(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}
