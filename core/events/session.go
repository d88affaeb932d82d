package events

const (
	// KindSessionStarted identifies session start.
	KindSessionStarted Kind = "session.started"
	// KindSessionEnded identifies session end.
	KindSessionEnded Kind = "session.ended"
)

// SessionStarted marks a session becoming active.
type SessionStarted struct {
	Base
	SessionID string
}

// NewSessionStarted creates a session started event.
func NewSessionStarted(sessionID string) SessionStarted {
	return SessionStarted{Base: NewBase(KindSessionStarted), SessionID: sessionID}
}

// SessionEnded marks a session entering its terminal status.
type SessionEnded struct {
	Base
	SessionID string
	// Duration is the session duration in seconds.
	Duration float64
}

// NewSessionEnded creates a session ended event.
func NewSessionEnded(sessionID string, duration float64) SessionEnded {
	return SessionEnded{Base: NewBase(KindSessionEnded), SessionID: sessionID, Duration: duration}
}
