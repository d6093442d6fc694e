package server

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"voiceloop/conversation"
	"voiceloop/core"
	sttevents "voiceloop/events/stt"
	"voiceloop/orchestrator"
)

func (s *Server) newHistory() *conversation.History {
	history := conversation.NewHistory(s.config.MaxTurns)
	if s.config.SystemPrompt != "" {
		history.SetSystemPrompt(s.config.SystemPrompt)
	}
	return history
}

// session is one websocket conversation: a reader loop feeding audio and text
// frames in, a transcript loop driving reply turns, and a write-mutex-guarded
// outbound side carrying the ordered event frames.
type session struct {
	id     string
	conn   *websocket.Conn
	orch   *orchestrator.Orchestrator
	logger *core.Logger
	server *Server

	transcriber Transcriber

	writeMu sync.Mutex

	// turnMu guards the in-flight turn; a new utterance cancels the previous
	// turn before starting its own (barge-in).
	turnMu     sync.Mutex
	cancelTurn context.CancelFunc
	turnDone   chan struct{}

	closeOnce sync.Once
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer s.close()

	ctx = core.WithSessionLogger(ctx, s.logger)

	if s.transcriber != nil {
		if err := s.transcriber.Connect(ctx); err != nil {
			s.logger.With(map[string]any{"error": err.Error()}).Error("transcriber connect failed")
			s.sendError("speech recognition unavailable")
			return
		}
		go s.transcriptLoop(ctx)
	}

	if greeting := s.server.config.Greeting; greeting != "" {
		s.startTurn(ctx, "", orchestrator.RunOptions{
			SystemPrompt: greeting,
			AddToHistory: false,
		})
	}

	s.readLoop(ctx)
}

// readLoop consumes client frames until the connection drops. Binary frames
// carry caller audio; text frames carry control messages.
func (s *session) readLoop(ctx context.Context) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.With(map[string]any{"error": err.Error()}).Debug("websocket read ended")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if s.transcriber == nil {
				continue
			}
			if err := s.transcriber.SendAudio(data); err != nil {
				s.logger.With(map[string]any{"error": err.Error()}).Warn("audio forward failed")
			}
		case websocket.TextMessage:
			s.handleClientMessage(ctx, data)
		}
	}
}

func (s *session) handleClientMessage(ctx context.Context, data []byte) {
	msg, err := decodeClientMessage(data)
	if err != nil {
		s.logger.With(map[string]any{"error": err.Error()}).Warn("bad client message")
		s.sendError("malformed message")
		return
	}

	switch msg.Type {
	case "text_input":
		if msg.Text == "" {
			return
		}
		s.startTurn(ctx, msg.Text, orchestrator.RunOptions{AddToHistory: true})
	case "clear_history":
		s.orch.History().Clear(true)
		s.logger.Info("history cleared by client")
	default:
		s.logger.With(map[string]any{"type": msg.Type}).Warn("unknown client message type")
	}
}

// transcriptLoop relays recognition events to the client and turns each
// completed utterance into a reply turn.
func (s *session) transcriptLoop(ctx context.Context) {
	for event := range s.transcriber.Events() {
		switch e := event.(type) {
		case *sttevents.InterimTranscriptEvent:
			s.sendEvent(event)
		case *sttevents.FinalTranscriptEvent:
			s.sendEvent(event)
			s.startTurn(ctx, e.Text, orchestrator.RunOptions{AddToHistory: true})
		case *sttevents.ErrorEvent:
			s.logger.With(map[string]any{"error": e.Err.Error()}).Error("recognition stream error")
			s.sendEvent(event)
		}
	}
}

// startTurn cancels any in-flight turn, then streams the new turn's events to
// the client. A fresh utterance always wins over audio still being produced
// for the previous one.
func (s *session) startTurn(ctx context.Context, userInput string, opts orchestrator.RunOptions) {
	s.turnMu.Lock()
	if s.cancelTurn != nil {
		s.cancelTurn()
		done := s.turnDone
		s.turnMu.Unlock()
		<-done
		s.turnMu.Lock()
	}

	turnCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancelTurn = cancel
	s.turnDone = done
	s.turnMu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		for event := range s.orch.Run(turnCtx, userInput, opts) {
			s.sendEvent(event)
		}
		s.turnMu.Lock()
		if s.turnDone == done {
			s.cancelTurn = nil
			s.turnDone = nil
		}
		s.turnMu.Unlock()
	}()
}

func (s *session) sendEvent(event core.Event) {
	data, err := encodeEvent(event)
	if err != nil {
		s.logger.With(map[string]any{"error": err.Error()}).Error("event encoding failed")
		return
	}
	s.write(data)
}

func (s *session) sendError(text string) {
	data, err := encodeError(text)
	if err != nil {
		return
	}
	s.write(data)
}

func (s *session) write(data []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.With(map[string]any{"error": err.Error()}).Debug("websocket write failed")
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		if s.transcriber != nil {
			_ = s.transcriber.Close()
		}
		_ = s.conn.Close()
	})
}
