package tts

import "voiceloop/core"

// StartedEvent marks the beginning of a spoken reply. Always the first event
// of a run.
type StartedEvent struct{}

func (e *StartedEvent) GetId() string {
	return "tts.start"
}

// ChunkEvent carries the synthesized audio for one sentence. Sequence starts
// at 1 and increases monotonically within a reply; IsFinal marks the trailing
// buffer flushed after the token stream ended.
type ChunkEvent struct {
	Sequence int
	Audio    []byte
	Format   core.AudioEncodingFormat
	IsFinal  bool
}

func (e *ChunkEvent) GetId() string {
	return "tts.chunk"
}

// EndedEvent marks the end of audio for a reply. TotalSentences counts every
// sentence the reply attempted to synthesize, including skipped failures.
type EndedEvent struct {
	TotalSentences int
}

func (e *EndedEvent) GetId() string {
	return "tts.end"
}
