package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voiceloop/core"
	"voiceloop/orchestrator"
)

// Transcriber is the live speech-recognition collaborator a session feeds
// caller audio into. Completed utterances arriving on Events() drive reply
// turns.
type Transcriber interface {
	Connect(ctx context.Context) error
	Events() <-chan core.Event
	SendAudio(data []byte) error
	Close() error
}

// Dependencies are the collaborators shared across sessions. NewTranscriber
// is optional; without it the session is text-only and clients drive turns
// with text_input frames.
type Dependencies struct {
	LLM            orchestrator.LLMService
	TTS            orchestrator.TTSService
	NewTranscriber func(logger *core.Logger) (Transcriber, error)
}

// Config holds the conversation server configuration.
type Config struct {
	Path            string
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64

	// SystemPrompt is pinned as the first history turn of every session.
	SystemPrompt string

	// Greeting, when set, is spoken as a transient turn right after connect.
	Greeting string

	MaxTurns     int
	Orchestrator orchestrator.Config
}

// DefaultConfig returns a default server configuration.
func DefaultConfig() Config {
	return Config{
		Path:            "/ws",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		MaxMessageSize:  1 << 20,
		MaxTurns:        conversationMaxTurnsDefault,
		Orchestrator:    orchestrator.DefaultConfig(),
	}
}

const conversationMaxTurnsDefault = 50

// Server accepts websocket conversations and runs one pipeline session per
// connection: caller audio in, ordered transcript/audio/reply frames out.
type Server struct {
	config   Config
	deps     Dependencies
	upgrader websocket.Upgrader
	logger   *core.Logger

	sessionsMu sync.Mutex
	sessions   map[string]*session
}

// New creates a conversation server.
func New(config Config, deps Dependencies, logger *core.Logger) *Server {
	if logger == nil {
		logger = core.GetLogger()
	}
	if config.Path == "" {
		config.Path = "/ws"
	}
	if config.MaxTurns <= 0 {
		config.MaxTurns = conversationMaxTurnsDefault
	}
	return &Server{
		config: config,
		deps:   deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Handler returns the HTTP handler serving the websocket endpoint plus the
// health and root status endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Shutdown closes every active session.
func (s *Server) Shutdown() {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	for _, sess := range s.sessions {
		sess.close()
	}
	s.sessions = make(map[string]*session)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.sessionsMu.Lock()
	active := len(s.sessions)
	s.sessionsMu.Unlock()
	s.writeJSON(w, map[string]any{
		"service":         "voiceloop",
		"active_sessions": active,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := sonic.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.With(map[string]any{"error": err.Error()}).Error("websocket upgrade failed")
		return
	}
	if s.config.MaxMessageSize > 0 {
		conn.SetReadLimit(s.config.MaxMessageSize)
	}

	sessionID := uuid.NewString()
	logger := s.logger.With(map[string]any{"session": sessionID})

	history := s.newHistory()
	sess := &session{
		id:     sessionID,
		conn:   conn,
		orch:   orchestrator.New(s.deps.LLM, s.deps.TTS, history, s.config.Orchestrator, logger),
		logger: logger,
		server: s,
	}

	if s.deps.NewTranscriber != nil {
		transcriber, err := s.deps.NewTranscriber(logger)
		if err != nil {
			logger.With(map[string]any{"error": err.Error()}).Error("transcriber setup failed")
			sess.sendError("speech recognition unavailable")
			conn.Close()
			return
		}
		sess.transcriber = transcriber
	}

	s.sessionsMu.Lock()
	s.sessions[sessionID] = sess
	s.sessionsMu.Unlock()

	logger.Info("session started")
	sess.run(r.Context())

	s.sessionsMu.Lock()
	delete(s.sessions, sessionID)
	s.sessionsMu.Unlock()
	logger.Info("session ended")
}
