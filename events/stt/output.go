package stt

// InterimTranscriptEvent is a low-latency partial transcript. It may be
// revised by later interim results and is never fed to the orchestrator.
type InterimTranscriptEvent struct {
	Text string
}

func (e *InterimTranscriptEvent) GetId() string {
	return "stt.interim"
}

// FinalTranscriptEvent is a turn-complete utterance: the recognition
// collaborator has judged that the speaker finished. This is what triggers an
// orchestrator run.
type FinalTranscriptEvent struct {
	Text string
}

func (e *FinalTranscriptEvent) GetId() string {
	return "stt.final"
}

// ErrorEvent surfaces a recognition transport failure on the same ordered
// stream as transcripts, replacing per-callback error handlers.
type ErrorEvent struct {
	Err error
}

func (e *ErrorEvent) GetId() string {
	return "stt.error"
}
