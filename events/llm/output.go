package llm

// ResponseMetadata describes how the reply text came to be.
type ResponseMetadata struct {
	Streaming bool `json:"streaming,omitempty"`
	Sentences int  `json:"sentences,omitempty"`
	NoReply   bool `json:"no_reply,omitempty"` // reply deliberately yields no audio
	Error     bool `json:"error,omitempty"`    // text is an apology, not a model reply
}

// ResponseEvent carries the full reply text for display and logging. Always
// the last event of a run.
type ResponseEvent struct {
	Text     string
	Metadata ResponseMetadata
}

func (e *ResponseEvent) GetId() string {
	return "llm.response"
}
