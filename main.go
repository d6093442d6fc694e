package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voiceloop/config"
	"voiceloop/core"
	"voiceloop/orchestrator"
	"voiceloop/server"
	deepgramstt "voiceloop/services/deepgram/stt"
	elevenlabstts "voiceloop/services/elevenlabs/tts"
	openaillm "voiceloop/services/openai/llm"
	openaitts "voiceloop/services/openai/tts"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	logger := core.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err.Error())
	}

	llmService, err := openaillm.NewService(openaillm.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	}, logger)
	if err != nil {
		logger.Fatal(err.Error())
	}

	ttsService, err := buildTTS(cfg, logger)
	if err != nil {
		logger.Fatal(err.Error())
	}

	serverConfig := server.DefaultConfig()
	serverConfig.SystemPrompt = cfg.SystemPrompt
	serverConfig.Greeting = cfg.Greeting
	serverConfig.MaxTurns = cfg.MaxTurns
	serverConfig.Orchestrator = orchestrator.Config{
		Temperature:      cfg.Temperature,
		MaxTokens:        cfg.MaxTokens,
		MinSentenceChars: cfg.MinSentenceChars,
		AbortMarker:      cfg.AbortMarker,
	}

	deps := server.Dependencies{
		LLM: llmService,
		TTS: ttsService,
	}
	if cfg.DeepgramAPIKey != "" {
		deps.NewTranscriber = func(sessionLogger *core.Logger) (server.Transcriber, error) {
			sttConfig := deepgramstt.DefaultConfig()
			sttConfig.APIKey = cfg.DeepgramAPIKey
			sttConfig.Model = cfg.STTModel
			sttConfig.Language = cfg.STTLanguage
			sttConfig.SampleRate = cfg.STTSampleRate
			sttConfig.EndpointingMs = cfg.STTEndpointing
			sttConfig.UtteranceEndMs = cfg.STTUtteranceEnd
			return deepgramstt.NewService(sttConfig, sessionLogger)
		}
	} else {
		logger.Warn("DEEPGRAM_API_KEY not set, speech recognition disabled (text input only)")
	}

	srv := server.New(serverConfig, deps, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Handler(),
	}

	go func() {
		logger.With(map[string]any{"port": cfg.Port}).Info("voiceloop server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	srv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.With(map[string]any{"error": err.Error()}).Error("server shutdown error")
	}
}

func buildTTS(cfg *config.Config, logger *core.Logger) (orchestrator.TTSService, error) {
	switch cfg.TTSProvider {
	case "elevenlabs":
		return elevenlabstts.NewService(elevenlabstts.Config{
			APIKey:  cfg.ElevenLabsAPIKey,
			VoiceID: cfg.ElevenLabsVoice,
			ModelID: cfg.ElevenLabsModel,
			Format:  cfg.TTSFormat,
		}, logger)
	default:
		ttsConfig := openaitts.DefaultConfig()
		ttsConfig.APIKey = cfg.LLMAPIKey
		ttsConfig.BaseURL = cfg.LLMBaseURL
		ttsConfig.Model = cfg.OpenAITTSModel
		ttsConfig.Voice = cfg.OpenAITTSVoice
		ttsConfig.Format = cfg.TTSFormat
		return openaitts.NewService(ttsConfig, logger)
	}
}
