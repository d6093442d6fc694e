package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceloop/core"
	llmevents "voiceloop/events/llm"
	sttevents "voiceloop/events/stt"
	ttsevents "voiceloop/events/tts"
)

func decodeWire(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func TestEncodeChunkEvent(t *testing.T) {
	data, err := encodeEvent(&ttsevents.ChunkEvent{
		Sequence: 3,
		Audio:    []byte{0x01, 0x02, 0x03},
		Format:   core.WAV,
		IsFinal:  true,
	})
	require.NoError(t, err)

	decoded := decodeWire(t, data)
	assert.Equal(t, "tts_chunk", decoded["type"])
	assert.Equal(t, float64(3), decoded["sequence"])
	assert.Equal(t, "wav", decoded["format"])
	assert.Equal(t, true, decoded["is_final"])
	assert.NotEmpty(t, decoded["id"])
	assert.NotZero(t, decoded["timestamp"])

	audio, err := base64.StdEncoding.DecodeString(decoded["audio"].(string))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, audio)
}

func TestEncodeLifecycleEvents(t *testing.T) {
	data, err := encodeEvent(&ttsevents.StartedEvent{})
	require.NoError(t, err)
	assert.Equal(t, "tts_start", decodeWire(t, data)["type"])

	data, err = encodeEvent(&ttsevents.EndedEvent{TotalSentences: 4})
	require.NoError(t, err)
	decoded := decodeWire(t, data)
	assert.Equal(t, "tts_end", decoded["type"])
	assert.Equal(t, float64(4), decoded["total_sentences"])
}

func TestEncodeResponseEvent(t *testing.T) {
	data, err := encodeEvent(&llmevents.ResponseEvent{
		Text:     "hello there",
		Metadata: llmevents.ResponseMetadata{Streaming: true, Sentences: 2},
	})
	require.NoError(t, err)

	decoded := decodeWire(t, data)
	assert.Equal(t, "llm_response", decoded["type"])
	assert.Equal(t, "hello there", decoded["text"])
	metadata, ok := decoded["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, metadata["streaming"])
	assert.Equal(t, float64(2), metadata["sentences"])
}

func TestEncodeTranscriptionEvents(t *testing.T) {
	data, err := encodeEvent(&sttevents.InterimTranscriptEvent{Text: "hel"})
	require.NoError(t, err)
	decoded := decodeWire(t, data)
	assert.Equal(t, "transcription", decoded["type"])
	assert.Equal(t, "hel", decoded["text"])
	_, hasFinal := decoded["is_final"]
	assert.False(t, hasFinal)

	data, err = encodeEvent(&sttevents.FinalTranscriptEvent{Text: "hello"})
	require.NoError(t, err)
	decoded = decodeWire(t, data)
	assert.Equal(t, "transcription", decoded["type"])
	assert.Equal(t, true, decoded["is_final"])
}

func TestEncodeErrorEvent(t *testing.T) {
	data, err := encodeEvent(&sttevents.ErrorEvent{Err: errors.New("socket dropped")})
	require.NoError(t, err)
	decoded := decodeWire(t, data)
	assert.Equal(t, "error", decoded["type"])
	assert.Equal(t, "socket dropped", decoded["text"])
}

func TestEncodeUnknownEventFails(t *testing.T) {
	_, err := encodeEvent(unknownEvent{})
	assert.Error(t, err)
}

type unknownEvent struct{}

func (unknownEvent) GetId() string { return "mystery" }

func TestDecodeClientMessage(t *testing.T) {
	msg, err := decodeClientMessage([]byte(`{"type":"text_input","text":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "text_input", msg.Type)
	assert.Equal(t, "hello", msg.Text)

	_, err = decodeClientMessage([]byte(`{not json`))
	assert.Error(t, err)
}
