package orchestrator

import (
	"voiceloop/conversation"
	"voiceloop/core"
)

const (
	transportApology = "I'm sorry, I'm having trouble reaching my language model right now. Please try again in a moment."
	unknownApology   = "I'm sorry, I encountered an unexpected error. Please try again."
)

// RecoveryPolicy converts language-model collaborator failures into
// user-visible apology turns and decides whether the conversation history
// must be reset. It is the only component besides the normal append path that
// mutates history.
type RecoveryPolicy struct {
	history *conversation.History
	logger  *core.Logger
}

func NewRecoveryPolicy(history *conversation.History, logger *core.Logger) *RecoveryPolicy {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &RecoveryPolicy{history: history, logger: logger}
}

// Recover classifies the failure and returns the apology text to surface.
// When addToHistory is set the apology becomes an assistant turn, and a
// context-corruption failure additionally clears the history down to the
// pinned system prompt so the next turn starts from a clean context window.
func (p *RecoveryPolicy) Recover(err error, addToHistory bool) string {
	apology := apologyFor(err)

	switch {
	case core.IsContextCorruptionError(err):
		p.logger.With(map[string]any{"error": err.Error()}).Warn("language model rejected the context")
	case core.IsTransportError(err):
		p.logger.With(map[string]any{"error": err.Error()}).Error("language model transport failure")
	default:
		p.logger.With(map[string]any{"error": err.Error()}).Error("language model failure")
	}

	if addToHistory {
		p.history.Append(core.RoleAssistant, apology)
		if core.IsContextCorruptionError(err) {
			p.logger.Warn("clearing conversation history to recover")
			p.history.Clear(true)
		}
	}
	return apology
}

func apologyFor(err error) string {
	if core.IsTransportError(err) || core.IsContextCorruptionError(err) {
		return transportApology
	}
	return unknownApology
}
