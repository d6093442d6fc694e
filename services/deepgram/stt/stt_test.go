package stt

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sttevents "voiceloop/events/stt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	config := DefaultConfig()
	config.APIKey = "dg-test"
	svc, err := NewService(config, nil)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresKey(t *testing.T) {
	_, err := NewService(Config{}, nil)
	assert.Error(t, err)
}

func TestBuildURL(t *testing.T) {
	svc := newTestService(t)
	endpoint, err := svc.buildURL()
	require.NoError(t, err)

	parsed, err := url.Parse(endpoint)
	require.NoError(t, err)
	assert.Equal(t, "wss", parsed.Scheme)
	assert.Equal(t, "/v1/listen", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "nova-2", q.Get("model"))
	assert.Equal(t, "linear16", q.Get("encoding"))
	assert.Equal(t, "16000", q.Get("sample_rate"))
	assert.Equal(t, "true", q.Get("interim_results"))
	assert.Equal(t, "true", q.Get("punctuate"))
	assert.Equal(t, "300", q.Get("endpointing"))
	assert.Equal(t, "1000", q.Get("utterance_end_ms"))
}

func TestHandleMessageInterimResult(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	message := []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hello wor"}]}}`)
	require.NoError(t, svc.handleMessage(ctx, message))

	event := <-svc.events
	interim, ok := event.(*sttevents.InterimTranscriptEvent)
	require.True(t, ok)
	assert.Equal(t, "hello wor", interim.Text)
}

func TestHandleMessageFinalSegmentsJoinOnSpeechFinal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first := []byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"hello"}]}}`)
	require.NoError(t, svc.handleMessage(ctx, first))
	assert.Empty(t, svc.events, "segment is held until the utterance completes")

	second := []byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"world"}]}}`)
	require.NoError(t, svc.handleMessage(ctx, second))

	event := <-svc.events
	final, ok := event.(*sttevents.FinalTranscriptEvent)
	require.True(t, ok)
	assert.Equal(t, "hello world", final.Text)
}

func TestHandleMessageUtteranceEndFlushes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	segment := []byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"trailing words"}]}}`)
	require.NoError(t, svc.handleMessage(ctx, segment))

	require.NoError(t, svc.handleMessage(ctx, []byte(`{"type":"UtteranceEnd"}`)))

	event := <-svc.events
	final, ok := event.(*sttevents.FinalTranscriptEvent)
	require.True(t, ok)
	assert.Equal(t, "trailing words", final.Text)
}

func TestHandleMessageUtteranceEndWithoutSegmentsIsSilent(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.handleMessage(context.Background(), []byte(`{"type":"UtteranceEnd"}`)))
	assert.Empty(t, svc.events)
}

func TestHandleMessageIgnoresEmptyTranscripts(t *testing.T) {
	svc := newTestService(t)
	message := []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"   "}]}}`)
	require.NoError(t, svc.handleMessage(context.Background(), message))
	assert.Empty(t, svc.events)
}

func TestHandleMessageUnknownType(t *testing.T) {
	svc := newTestService(t)
	err := svc.handleMessage(context.Background(), []byte(`{"type":"Gossip"}`))
	assert.Error(t, err)

	assert.NoError(t, svc.handleMessage(context.Background(), []byte(`{"type":"Metadata"}`)))
}

func TestSendAudioBeforeConnect(t *testing.T) {
	svc := newTestService(t)
	assert.Error(t, svc.SendAudio([]byte{0x00}))
	assert.Error(t, svc.Finalize())
	assert.NoError(t, svc.Close())
}
