package tts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"voiceloop/core"
	audioutil "voiceloop/utils/audio"
)

// speechPCMSampleRate is the fixed rate of the endpoint's raw PCM output.
const speechPCMSampleRate = 24000

// Config holds the configuration for the speech-synthesis collaborator.
// BaseURL may point at any server implementing the OpenAI audio/speech API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
	Format  core.AudioEncodingFormat
	Speed   float64
}

// DefaultConfig returns a Config with sensible defaults; APIKey and BaseURL
// still need to be supplied.
func DefaultConfig() Config {
	return Config{
		Model:  "tts-1",
		Voice:  "alloy",
		Format: core.WAV,
		Speed:  1.0,
	}
}

// Service implements orchestrator.TTSService via the OpenAI-compatible
// /v1/audio/speech endpoint. µ-law output is produced locally: the endpoint
// is asked for raw PCM which is resampled to 8 kHz and G.711-encoded.
type Service struct {
	client *openai.Client
	config Config
	logger *core.Logger
}

func NewService(config Config, logger *core.Logger) (*Service, error) {
	if config.APIKey == "" {
		return nil, errors.New("tts: API key is required")
	}
	if config.Model == "" {
		config.Model = "tts-1"
	}
	if config.Voice == "" {
		config.Voice = "alloy"
	}
	if config.Speed == 0 {
		config.Speed = 1.0
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Service{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}, nil
}

// Synthesize renders one sentence to audio bytes in the configured format.
func (s *Service) Synthesize(ctx context.Context, sentence string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.Model),
		Input:          sentence,
		Voice:          openai.SpeechVoice(s.config.Voice),
		ResponseFormat: responseFormat(s.config.Format),
		Speed:          s.config.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("tts: create speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("tts: read speech response: %w", err)
	}

	if s.config.Format == core.ULAW {
		pcm, err := audioutil.ResamplePCM16(data, speechPCMSampleRate, 8000)
		if err != nil {
			return nil, fmt.Errorf("tts: resample for ulaw: %w", err)
		}
		return audioutil.PCMBytesToULaw(pcm)
	}
	return data, nil
}

// OutputFormat reports the format of the bytes Synthesize returns.
func (s *Service) OutputFormat() core.AudioEncodingFormat {
	return s.config.Format
}

func responseFormat(format core.AudioEncodingFormat) openai.SpeechResponseFormat {
	switch format {
	case core.MP3:
		return openai.SpeechResponseFormatMp3
	case core.PCM, core.ULAW:
		return openai.SpeechResponseFormatPcm
	default:
		return openai.SpeechResponseFormatWav
	}
}
