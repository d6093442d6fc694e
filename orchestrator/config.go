package orchestrator

// Config tunes one orchestrator instance.
type Config struct {
	// Temperature and MaxTokens are passed through to the language-model
	// collaborator on every request.
	Temperature float32
	MaxTokens   int

	// MinSentenceChars is the minimum trimmed buffer length before a detected
	// sentence boundary is acted on. Short fragments like "Ok." are held back
	// because a longer sentence is usually still streaming.
	MinSentenceChars int

	// AbortMarker silently cancels synthesis when it appears in the reply.
	// Matched against the uppercased, whitespace-stripped accumulated text,
	// so it fires even when the model streams it one character at a time.
	AbortMarker string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Temperature:      0.7,
		MaxTokens:        2048,
		MinSentenceChars: 10,
		AbortMarker:      "NO_REPLY",
	}
}
