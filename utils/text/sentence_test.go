package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSentenceComplete(t *testing.T) {
	tests := []struct {
		name   string
		buffer string
		want   bool
	}{
		{"period", "Hello there.", true},
		{"exclamation", "Watch out!", true},
		{"question", "How are you?", true},
		{"trailing whitespace", "Hello there.   ", true},
		{"trailing newline", "Hello there.\n", true},
		{"period then closing quote", `He said "stop."`, true},
		{"period then curly quote", "He said “stop.”", true},
		{"period then apostrophe quote", "She said 'go.'", true},
		{"mid sentence", "Hello there", false},
		{"comma", "Well,", false},
		{"empty", "", false},
		{"only whitespace", "   ", false},
		{"lone quote", `"`, false},
		{"quote without terminator", `he said "stop"`, false},
		{"ellipsis", "Wait...", true},
		{"abbreviation still counts", "Dr.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSentenceComplete(tt.buffer))
		})
	}
}

func TestNormalizeForMarker(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "NO_REPLY", "NO_REPLY"},
		{"lowercase", "no_reply", "NO_REPLY"},
		{"split across tokens", "NO_ REPLY", "NO_REPLY"},
		{"tabs and newlines", "no_\n\trePLY", "NO_REPLY"},
		{"embedded in sentence", "ok no_reply done", "OKNO_REPLYDONE"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeForMarker(tt.input))
		})
	}
}
