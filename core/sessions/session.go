package sessions

import (
	"time"

	"github.com/koscakluka/aria-core/core/audio"
)

// Status is the lifecycle status of a session.
//
// The expected flow is Idle -> Connecting -> Active -> Paused <-> Active ->
// Ending -> Ended, plus any status -> Error. The store records whatever
// status it is handed and does not validate that the requested edge is
// reachable from the current one; callers own the semantic ordering.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
	StatusPaused     Status = "paused"
	StatusEnding     Status = "ending"
	StatusEnded      Status = "ended"
	StatusError      Status = "error"
)

// InterruptionPolicy controls how user speech that overlaps an assistant
// response should be treated by whoever drives the session.
type InterruptionPolicy string

const (
	InterruptionPolicyNone      InterruptionPolicy = "none"
	InterruptionPolicyBargeIn   InterruptionPolicy = "barge_in"
	InterruptionPolicyHoldFloor InterruptionPolicy = "hold_floor"
)

// Config carries session-scoped configuration applied to every turn
// processed for the session.
type Config struct {
	Language           string
	Encoding           audio.EncodingInfo
	InterruptionPolicy InterruptionPolicy
	// EndpointingMs is the silence window (in milliseconds) the speech
	// backend should use to decide an utterance has ended.
	EndpointingMs int
	SystemPrompt  string
}

// Session is a bounded conversational context with its own lifecycle
// status. Mutated only through the owning Store.
type Session struct {
	ID     string
	Status Status

	StartedAt time.Time
	// EndedAt is set exactly once, when the session first enters
	// StatusEnded.
	EndedAt *time.Time
	// Duration is (EndedAt - StartedAt) in seconds; set iff EndedAt is set.
	Duration *float64

	// Metadata is caller-supplied and opaque to the core.
	Metadata map[string]any
	Config   Config
}
