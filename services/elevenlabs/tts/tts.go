package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"voiceloop/core"
)

// Config holds configuration for the ElevenLabs synthesis service.
type Config struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	VoiceID string `json:"voice_id"`
	ModelID string `json:"model_id"`

	// Voice settings
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`

	Format core.AudioEncodingFormat `json:"-"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Service implements orchestrator.TTSService against the ElevenLabs one-shot
// HTTP synthesis endpoint.
type Service struct {
	config     Config
	httpClient *http.Client
	logger     *core.Logger
}

// NewService creates an ElevenLabs synthesis service with the provided config.
func NewService(config Config, logger *core.Logger) (*Service, error) {
	if config.APIKey == "" {
		return nil, errors.New("elevenlabs: API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.elevenlabs.io"
	}
	if config.VoiceID == "" {
		config.VoiceID = "21m00Tcm4TlvDq8ikWAM" // Default: Rachel
	}
	if config.ModelID == "" {
		config.ModelID = "eleven_turbo_v2_5"
	}
	if config.Stability == 0 {
		config.Stability = 0.5
	}
	if config.SimilarityBoost == 0 {
		config.SimilarityBoost = 0.75
	}
	if config.Format == core.WAV {
		// ElevenLabs serves mp3/pcm/ulaw; wav is not an output option.
		return nil, errors.New("elevenlabs: wav output is not supported, use mp3, pcm or ulaw")
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	return &Service{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// Synthesize renders one sentence to audio bytes in the configured format.
func (s *Service) Synthesize(ctx context.Context, sentence string) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{
		Text:    sentence,
		ModelID: s.config.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       s.config.Stability,
			SimilarityBoost: s.config.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		s.config.BaseURL, s.config.VoiceID, outputFormatParam(s.config.Format))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: build request: %w", err)
	}
	req.Header.Set("xi-api-key", s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs: status %d: %s", resp.StatusCode, body)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read audio: %w", err)
	}
	return audio, nil
}

// OutputFormat reports the format of the bytes Synthesize returns.
func (s *Service) OutputFormat() core.AudioEncodingFormat {
	return s.config.Format
}

func outputFormatParam(format core.AudioEncodingFormat) string {
	switch format {
	case core.ULAW:
		return "ulaw_8000"
	case core.PCM:
		return "pcm_24000"
	default:
		return "mp3_44100_128"
	}
}
