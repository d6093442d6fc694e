package conversation

import (
	"sync"

	"voiceloop/core"
)

// DefaultMaxTurns allows deep context for models with large context windows.
const DefaultMaxTurns = 50

// History is the bounded, ordered turn log for one conversation session.
//
// Invariant: once the first turn is a system message it stays at index 0 for
// the lifetime of the history; eviction removes the oldest non-system turns
// and preserves the order of the remainder. A History is owned by a single
// session, but appends from the recovery path and the normal reply path are
// serialized by the internal mutex.
type History struct {
	mu       sync.Mutex
	maxTurns int
	turns    []core.Message
}

// NewHistory creates a history bounded to maxTurns entries. Values <= 0 fall
// back to DefaultMaxTurns.
func NewHistory(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &History{maxTurns: maxTurns}
}

// Append adds a turn, evicting the oldest non-system turns when the bound is
// exceeded.
func (h *History) Append(role core.Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, core.Message{Role: role, Content: content})
	if len(h.turns) <= h.maxTurns {
		return
	}

	if h.turns[0].Role == core.RoleSystem {
		kept := make([]core.Message, 0, h.maxTurns)
		kept = append(kept, h.turns[0])
		kept = append(kept, h.turns[len(h.turns)-(h.maxTurns-1):]...)
		h.turns = kept
		return
	}
	h.turns = append([]core.Message(nil), h.turns[len(h.turns)-h.maxTurns:]...)
}

// Messages returns an ordered copy of the history for transmission to the
// language-model collaborator.
func (h *History) Messages() []core.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]core.Message(nil), h.turns...)
}

// Len returns the current number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Clear empties the history. With keepSystemPrompt, a leading system turn is
// retained so the next request starts from a clean but instructed context.
func (h *History) Clear(keepSystemPrompt bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if keepSystemPrompt && len(h.turns) > 0 && h.turns[0].Role == core.RoleSystem {
		h.turns = []core.Message{h.turns[0]}
		return
	}
	h.turns = nil
}

// SetSystemPrompt installs or replaces the pinned leading system turn.
// Intended for session setup; the pinned turn then survives eviction and
// keepSystemPrompt resets.
func (h *History) SetSystemPrompt(content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.turns) > 0 && h.turns[0].Role == core.RoleSystem {
		h.turns[0] = core.Message{Role: core.RoleSystem, Content: content}
		return
	}
	h.turns = append([]core.Message{{Role: core.RoleSystem, Content: content}}, h.turns...)
}
