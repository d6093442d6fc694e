package server

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"voiceloop/core"
	llmevents "voiceloop/events/llm"
	sttevents "voiceloop/events/stt"
	ttsevents "voiceloop/events/tts"
)

// wireMessage is the envelope for every frame sent to the client. Audio
// payloads ride as base64 through the standard []byte JSON encoding.
type wireMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`

	Text     string `json:"text,omitempty"`
	Audio    []byte `json:"audio,omitempty"`
	Format   string `json:"format,omitempty"`
	Sequence int    `json:"sequence,omitempty"`
	IsFinal  bool   `json:"is_final,omitempty"`

	TotalSentences int                         `json:"total_sentences,omitempty"`
	Metadata       *llmevents.ResponseMetadata `json:"metadata,omitempty"`
}

// clientMessage is a text frame received from the client.
type clientMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func newWireMessage(msgType string) wireMessage {
	return wireMessage{
		Type:      msgType,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
	}
}

// encodeEvent maps a pipeline event onto its wire frame.
func encodeEvent(event core.Event) ([]byte, error) {
	var msg wireMessage

	switch e := event.(type) {
	case *ttsevents.StartedEvent:
		msg = newWireMessage("tts_start")
	case *ttsevents.ChunkEvent:
		msg = newWireMessage("tts_chunk")
		msg.Audio = e.Audio
		msg.Format = e.Format.String()
		msg.Sequence = e.Sequence
		msg.IsFinal = e.IsFinal
	case *ttsevents.EndedEvent:
		msg = newWireMessage("tts_end")
		msg.TotalSentences = e.TotalSentences
	case *llmevents.ResponseEvent:
		msg = newWireMessage("llm_response")
		msg.Text = e.Text
		metadata := e.Metadata
		msg.Metadata = &metadata
	case *sttevents.InterimTranscriptEvent:
		msg = newWireMessage("transcription")
		msg.Text = e.Text
	case *sttevents.FinalTranscriptEvent:
		msg = newWireMessage("transcription")
		msg.Text = e.Text
		msg.IsFinal = true
	case *sttevents.ErrorEvent:
		msg = newWireMessage("error")
		msg.Text = e.Err.Error()
	default:
		return nil, fmt.Errorf("server: no wire encoding for event %q", event.GetId())
	}

	return sonic.Marshal(msg)
}

func encodeError(text string) ([]byte, error) {
	msg := newWireMessage("error")
	msg.Text = text
	return sonic.Marshal(msg)
}

func decodeClientMessage(data []byte) (clientMessage, error) {
	var msg clientMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return clientMessage{}, fmt.Errorf("server: decode client message: %w", err)
	}
	return msg, nil
}
