// Package service implements the chat operations exposed to transports,
// including the streaming message pipeline.
package service

// EventKind names the kinds of events a message stream can carry.
type EventKind string

const (
	// EventDelta carries one generated text fragment.
	EventDelta EventKind = "delta"
	// EventDone terminates a successful stream.
	EventDone EventKind = "done"
	// EventError terminates a failed stream with a description.
	EventError EventKind = "error"
)

// Event is one notification of a message stream. Zero or more delta events
// are followed by exactly one terminal event (done or error).
type Event struct {
	Kind    EventKind
	Text    string // delta payload
	Message string // error payload
}

// Payload returns the structured payload transports serialize into the
// event's data frame: {text} for delta, {message} for error, {} for done.
func (e Event) Payload() any {
	switch e.Kind {
	case EventDelta:
		return map[string]string{"text": e.Text}
	case EventError:
		return map[string]string{"message": e.Message}
	default:
		return map[string]string{}
	}
}
