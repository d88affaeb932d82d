package events

import "time"

// Kind names an event variant. Kinds are namespaced strings such as
// "session.started" or "turn.transcript_final"; the full catalog lives in
// this package's doc comment.
type Kind string

// Event is the contract every published event satisfies. Concrete events
// embed Base to get it.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and emission time shared by all events.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase stamps a new event base with the current time.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
