package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voiceloop/core"
	sttevents "voiceloop/events/stt"
)

// Config holds configuration options for Deepgram live transcription.
type Config struct {
	APIKey         string `json:"api_key"`
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	Language       string `json:"language"`
	SampleRate     int    `json:"sample_rate"`
	Channels       int    `json:"channels"`
	InterimResults bool   `json:"interim_results"`
	Punctuate      bool   `json:"punctuate"`
	SmartFormat    bool   `json:"smart_format"`
	EndpointingMs  int    `json:"endpointing_ms"`
	UtteranceEndMs int    `json:"utterance_end_ms"`
}

// DefaultConfig returns a default configuration for Deepgram live STT.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "wss://api.deepgram.com",
		Model:          "nova-2",
		SampleRate:     16000,
		Channels:       1,
		InterimResults: true,
		Punctuate:      true,
		SmartFormat:    true,
		EndpointingMs:  300,
		UtteranceEndMs: 1000,
	}
}

// Service streams caller audio to Deepgram and delivers transcription results
// as a single ordered event stream: interim transcripts, turn-complete final
// utterances, and transport errors all arrive on Events() in the order they
// occurred.
type Service struct {
	config Config
	logger *core.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	events chan core.Event

	// finals accumulates is_final segments until the utterance completes.
	finals []string

	closeOnce sync.Once
}

// NewService creates a Deepgram live transcription service.
// Use DefaultConfig() and override only what you need.
func NewService(config Config, logger *core.Logger) (*Service, error) {
	if config.APIKey == "" {
		return nil, errors.New("deepgram: API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "wss://api.deepgram.com"
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Service{
		config: config,
		logger: logger,
		events: make(chan core.Event, 16),
	}, nil
}

// Connect dials the live-transcription socket and starts the read and
// keep-alive loops. The event stream ends (channel closed) when the socket
// closes.
func (s *Service) Connect(ctx context.Context) error {
	endpoint, err := s.buildURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+s.config.APIKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("deepgram: dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("deepgram: dial failed: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	go s.readLoop(ctx)
	go s.keepAlive(ctx)

	s.logger.With(map[string]any{"model": s.config.Model}).Info("deepgram live transcription connected")
	return nil
}

// Events returns the ordered transcription event stream.
func (s *Service) Events() <-chan core.Event {
	return s.events
}

// SendAudio forwards one frame of caller audio (16-bit linear PCM at the
// configured sample rate).
func (s *Service) SendAudio(data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return errors.New("deepgram: not connected")
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Finalize asks the endpoint to flush any buffered audio into a final result.
func (s *Service) Finalize() error {
	return s.writeControl(`{"type":"Finalize"}`)
}

// Close ends the transcription stream and closes the connection.
func (s *Service) Close() error {
	_ = s.writeControl(`{"type":"CloseStream"}`)

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Service) writeControl(msg string) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return errors.New("deepgram: not connected")
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (s *Service) buildURL() (string, error) {
	base, err := url.Parse(s.config.BaseURL + "/v1/listen")
	if err != nil {
		return "", fmt.Errorf("deepgram: invalid base URL: %w", err)
	}

	q := base.Query()
	q.Set("model", s.config.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(s.config.SampleRate))
	if s.config.Channels > 1 {
		q.Set("channels", strconv.Itoa(s.config.Channels))
	}
	if s.config.Language != "" {
		q.Set("language", s.config.Language)
	}
	if s.config.InterimResults {
		q.Set("interim_results", "true")
	}
	if s.config.Punctuate {
		q.Set("punctuate", "true")
	}
	if s.config.SmartFormat {
		q.Set("smart_format", "true")
	}
	if s.config.EndpointingMs > 0 {
		q.Set("endpointing", strconv.Itoa(s.config.EndpointingMs))
	}
	if s.config.UtteranceEndMs > 0 {
		q.Set("utterance_end_ms", strconv.Itoa(s.config.UtteranceEndMs))
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func (s *Service) readLoop(ctx context.Context) {
	defer s.closeOnce.Do(func() { close(s.events) })

	for {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.deliver(ctx, &sttevents.ErrorEvent{Err: err})
			}
			return
		}
		if err := s.handleMessage(ctx, message); err != nil {
			s.logger.With(map[string]any{"error": err.Error()}).Warn("deepgram message dropped")
		}
	}
}

func (s *Service) handleMessage(ctx context.Context, message []byte) error {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &base); err != nil {
		return fmt.Errorf("parse message type: %w", err)
	}

	switch base.Type {
	case "Results":
		var result listenResults
		if err := json.Unmarshal(message, &result); err != nil {
			return fmt.Errorf("parse results: %w", err)
		}
		s.processResults(ctx, result)
	case "UtteranceEnd":
		s.flushUtterance(ctx)
	case "Metadata", "SpeechStarted":
		// informational, nothing to relay
	default:
		return fmt.Errorf("unknown message type %q", base.Type)
	}
	return nil
}

func (s *Service) processResults(ctx context.Context, result listenResults) {
	if len(result.Channel.Alternatives) == 0 {
		return
	}
	transcript := strings.TrimSpace(result.Channel.Alternatives[0].Transcript)
	if transcript == "" {
		return
	}

	if !result.IsFinal {
		s.deliver(ctx, &sttevents.InterimTranscriptEvent{Text: transcript})
		return
	}

	s.finals = append(s.finals, transcript)
	if result.SpeechFinal || result.FromFinalize {
		s.flushUtterance(ctx)
	}
}

// flushUtterance joins the accumulated final segments into one turn-complete
// utterance event.
func (s *Service) flushUtterance(ctx context.Context) {
	if len(s.finals) == 0 {
		return
	}
	utterance := strings.Join(s.finals, " ")
	s.finals = nil
	s.logger.With(map[string]any{"utterance": utterance}).Debug("turn complete")
	s.deliver(ctx, &sttevents.FinalTranscriptEvent{Text: utterance})
}

func (s *Service) deliver(ctx context.Context, event core.Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *Service) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.writeControl(`{"type":"KeepAlive"}`); err != nil {
				return
			}
		}
	}
}

type listenResults struct {
	Type         string  `json:"type"`
	Duration     float64 `json:"duration"`
	Start        float64 `json:"start"`
	IsFinal      bool    `json:"is_final"`
	SpeechFinal  bool    `json:"speech_final"`
	FromFinalize bool    `json:"from_finalize"`
	Channel      struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}
