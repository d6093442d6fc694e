package core

// Event is implemented by everything that flows through a session: the
// orchestrator's ordered output events and the recognition collaborator's
// input events alike.
type Event interface {
	GetId() string // Returns the stable identifier of the event type, e.g. "tts.chunk".
}
