package core

import "errors"

// TransportError wraps a network-level failure from the language-model
// collaborator: connection refused, timeout, gateway 5xx. Not retried by the
// orchestrator; the user hears an apology and may simply try again.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "llm transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ContextCorruptionError wraps a bad-request rejection from the language-model
// collaborator. The usual cause is a context window the endpoint can no longer
// accept, so the recovery policy resets the conversation history.
type ContextCorruptionError struct {
	Err error
}

func (e *ContextCorruptionError) Error() string {
	return "llm rejected context: " + e.Err.Error()
}

func (e *ContextCorruptionError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsContextCorruptionError(err error) bool {
	var ce *ContextCorruptionError
	return errors.As(err, &ce)
}
