package orchestrator

import (
	"context"
	"strings"

	"voiceloop/conversation"
	"voiceloop/core"
	llmevents "voiceloop/events/llm"
	ttsevents "voiceloop/events/tts"
	"voiceloop/utils/text"
)

// LLMService is the language-model collaborator consumed by the orchestrator.
type LLMService interface {
	// StreamReply requests a streamed completion for the ordered message list
	// and sends each text token on the tokens channel. It returns once the
	// stream is exhausted, the context is cancelled, or the request fails.
	// The caller owns the channel; StreamReply never closes it. Failures are
	// wrapped in core.TransportError / core.ContextCorruptionError where the
	// cause is known.
	StreamReply(ctx context.Context, messages []core.Message, temperature float32, maxTokens int, tokens chan<- string) error

	// GetReply is the non-streaming variant used by compatibility paths such
	// as canned greeting turns.
	GetReply(ctx context.Context, messages []core.Message, temperature float32, maxTokens int) (string, error)
}

// TTSService is the speech-synthesis collaborator. Synthesize failures are
// per-sentence and never fatal to a reply.
type TTSService interface {
	Synthesize(ctx context.Context, sentence string) ([]byte, error)
	OutputFormat() core.AudioEncodingFormat
}

// Orchestrator drives one conversation session: it turns a completed user
// utterance into an ordered stream of output events, synthesizing audio per
// sentence so the first chunk is ready long before the reply finishes.
type Orchestrator struct {
	llm      LLMService
	tts      TTSService
	history  *conversation.History
	recovery *RecoveryPolicy
	config   Config
	logger   *core.Logger
}

// RunOptions control a single Run invocation.
type RunOptions struct {
	// SystemPrompt, when set, is prepended to the outbound message list for
	// this request only. The pinned history system turn is the usual home for
	// session-wide instructions; this hook serves one-off flows.
	SystemPrompt string

	// AddToHistory records the user turn and the finished assistant turn in
	// the conversation history. Greeting and follow-up flows pass false so
	// the exchange stays transient.
	AddToHistory bool
}

// New creates an orchestrator bound to one session's history.
func New(llm LLMService, tts TTSService, history *conversation.History, config Config, logger *core.Logger) *Orchestrator {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Orchestrator{
		llm:      llm,
		tts:      tts,
		history:  history,
		recovery: NewRecoveryPolicy(history, logger),
		config:   config,
		logger:   logger,
	}
}

// History exposes the session history for setup and out-of-band operations
// (pinning the system prompt, explicit clears).
func (o *Orchestrator) History() *conversation.History {
	return o.history
}

// Run produces the event sequence for one reply: tts.StartedEvent, zero or
// more tts.ChunkEvent in sequence order, tts.EndedEvent, and a final
// llm.ResponseEvent. The channel is unbuffered and closed when the reply
// ends; events must be consumed in order and the sequence cannot be
// restarted mid-stream. Cancelling ctx stops token consumption and in-flight
// synthesis without appending a partial assistant turn.
func (o *Orchestrator) Run(ctx context.Context, userInput string, opts RunOptions) <-chan core.Event {
	out := make(chan core.Event)
	go func() {
		defer close(out)
		o.run(ctx, userInput, opts, out)
	}()
	return out
}

func (o *Orchestrator) run(ctx context.Context, userInput string, opts RunOptions, out chan<- core.Event) {
	sess := &streamingSession{}
	messages := o.buildMessages(userInput, opts)

	if !o.emit(ctx, out, &ttsevents.StartedEvent{}) {
		return
	}

	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()

	tokens := make(chan string, 16)
	errc := make(chan error, 1)
	go func() {
		errc <- o.llm.StreamReply(streamCtx, messages, o.config.Temperature, o.config.MaxTokens, tokens)
		close(tokens)
	}()

	for token := range tokens {
		sess.accumulated += token
		sess.sentenceBuffer += token

		if strings.Contains(text.NormalizeForMarker(sess.accumulated), o.config.AbortMarker) {
			cancelStream()
			for range tokens {
			}
			<-errc
			o.logger.Info("abort marker detected in streaming reply, suppressing audio")
			if !o.emit(ctx, out, &ttsevents.EndedEvent{TotalSentences: sess.sentenceCount}) {
				return
			}
			o.emit(ctx, out, &llmevents.ResponseEvent{
				Text:     sess.accumulated,
				Metadata: llmevents.ResponseMetadata{NoReply: true},
			})
			return
		}

		if text.IsSentenceComplete(sess.sentenceBuffer) &&
			len(strings.TrimSpace(sess.sentenceBuffer)) > o.config.MinSentenceChars {
			sentence := strings.TrimSpace(sess.sentenceBuffer)
			sess.sentenceBuffer = ""
			sess.sentenceCount++
			if !o.speak(ctx, out, sess, sentence, false) {
				return
			}
		}
	}

	streamErr := <-errc
	if ctx.Err() != nil {
		return
	}
	if streamErr != nil {
		apology := o.recovery.Recover(streamErr, opts.AddToHistory)
		// The started event is already out, so pair it before the error reply.
		if !o.emit(ctx, out, &ttsevents.EndedEvent{TotalSentences: sess.sentenceCount}) {
			return
		}
		o.emit(ctx, out, &llmevents.ResponseEvent{
			Text:     apology,
			Metadata: llmevents.ResponseMetadata{Error: true},
		})
		return
	}

	if remainder := strings.TrimSpace(sess.sentenceBuffer); remainder != "" {
		sess.sentenceCount++
		if !o.speak(ctx, out, sess, remainder, true) {
			return
		}
	}

	if !o.emit(ctx, out, &ttsevents.EndedEvent{TotalSentences: sess.sentenceCount}) {
		return
	}
	if !o.emit(ctx, out, &llmevents.ResponseEvent{
		Text: sess.accumulated,
		Metadata: llmevents.ResponseMetadata{
			Streaming: true,
			Sentences: sess.sentenceCount,
		},
	}) {
		return
	}

	if opts.AddToHistory && strings.TrimSpace(sess.accumulated) != "" {
		o.history.Append(core.RoleAssistant, sess.accumulated)
	}
}

// buildMessages assembles the outbound message list. With AddToHistory the
// user turn is recorded first so the history already carries it; otherwise it
// is appended transiently after the history snapshot.
func (o *Orchestrator) buildMessages(userInput string, opts RunOptions) []core.Message {
	messages := make([]core.Message, 0, o.history.Len()+2)
	if opts.SystemPrompt != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: opts.SystemPrompt})
	}

	trimmed := strings.TrimSpace(userInput)
	if trimmed != "" && opts.AddToHistory {
		o.history.Append(core.RoleUser, userInput)
	}
	messages = append(messages, o.history.Messages()...)
	if trimmed != "" && !opts.AddToHistory {
		messages = append(messages, core.Message{Role: core.RoleUser, Content: userInput})
	}
	return messages
}

// speak synthesizes one sentence and emits its chunk. Synthesis is awaited
// inline so the token stream is never drained faster than sentences can be
// voiced. A synthesis failure is logged and skipped; only consumer
// cancellation stops the reply, signalled by returning false.
func (o *Orchestrator) speak(ctx context.Context, out chan<- core.Event, sess *streamingSession, sentence string, isFinal bool) bool {
	audio, err := o.tts.Synthesize(ctx, sentence)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		o.logger.With(map[string]any{
			"sentence": sess.sentenceCount,
			"error":    err.Error(),
		}).Error("speech synthesis failed, skipping sentence")
		return true
	}

	if !sess.firstAudioEmitted {
		sess.firstAudioEmitted = true
		o.logger.Debug("first audio chunk ready")
	}

	return o.emit(ctx, out, &ttsevents.ChunkEvent{
		Sequence: sess.sentenceCount,
		Audio:    audio,
		Format:   o.tts.OutputFormat(),
		IsFinal:  isFinal,
	})
}

func (o *Orchestrator) emit(ctx context.Context, out chan<- core.Event, event core.Event) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
