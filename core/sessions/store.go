package sessions

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when an operation references an
	// unknown or deleted session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDuplicateSessionID is returned when a caller-supplied session id
	// collides with a live session.
	ErrDuplicateSessionID = errors.New("duplicate session id")
)

// Store owns the set of live sessions. All mutations go through the store,
// which serializes access internally; the Session values it hands out are
// copies.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}}
}

type CreateOptions struct {
	ID       string
	Metadata map[string]any
}

type CreateOption func(*CreateOptions)

// WithID supplies the session id instead of generating one.
func WithID(id string) CreateOption {
	return func(o *CreateOptions) { o.ID = id }
}

// WithMetadata attaches caller metadata to the session. The mapping is
// opaque to the core and only threaded through.
func WithMetadata(metadata map[string]any) CreateOption {
	return func(o *CreateOptions) { o.Metadata = metadata }
}

// Create allocates a new session with StatusIdle and records its start
// time. Returns ErrDuplicateSessionID if a caller-supplied id is already
// live.
func (s *Store) Create(config Config, opts ...CreateOption) (*Session, error) {
	options := CreateOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	id := options.ID
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("session %q: %w", id, ErrDuplicateSessionID)
	}

	// The metadata map is cloned both ways so neither the caller nor the
	// store can observe the other's later mutations.
	session := &Session{
		ID:        id,
		Status:    StatusIdle,
		StartedAt: time.Now(),
		Metadata:  maps.Clone(options.Metadata),
		Config:    config,
	}
	s.sessions[id] = session

	return snapshot(session), nil
}

// Get looks up a session by id. The second return value reports whether the
// session exists; lookup of an unknown id is not an error.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return snapshot(session), true
}

// Transition records a new status for the session. The store does not
// validate that the requested edge is reachable from the current status;
// it is a ledger of status, not a validator.
//
// Entering StatusEnded stamps EndedAt and Duration. Re-entering StatusEnded
// leaves the original timestamps untouched.
func (s *Store) Transition(id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}

	session.Status = status
	if status == StatusEnded && session.EndedAt == nil {
		endedAt := time.Now()
		duration := endedAt.Sub(session.StartedAt).Seconds()
		session.EndedAt = &endedAt
		session.Duration = &duration
	}

	return nil
}

// End transitions the session to StatusEnded.
func (s *Store) End(id string) error {
	return s.Transition(id, StatusEnded)
}

// Delete removes the session unconditionally and reports whether it
// existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// ListActive returns the sessions that are currently connecting or active,
// in unspecified order.
func (s *Store) ListActive() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []Session
	for _, session := range s.sessions {
		if session.Status == StatusActive || session.Status == StatusConnecting {
			active = append(active, *snapshot(session))
		}
	}
	return active
}

// SweepExpired deletes ended sessions whose end time is strictly older than
// maxAge and returns how many were removed. The store does not schedule
// this itself; run it periodically from the outside.
func (s *Store) SweepExpired(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, session := range s.sessions {
		if session.Status != StatusEnded || session.EndedAt == nil {
			continue
		}
		if session.EndedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Stats are point-in-time session counts.
type Stats struct {
	Total   int
	Active  int
	Ended   int
	Errored int
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Total: len(s.sessions)}
	for _, session := range s.sessions {
		switch session.Status {
		case StatusActive, StatusConnecting:
			stats.Active++
		case StatusEnded:
			stats.Ended++
		case StatusError:
			stats.Errored++
		}
	}
	return stats
}

func snapshot(session *Session) *Session {
	copied := *session
	if session.Metadata != nil {
		copied.Metadata = maps.Clone(session.Metadata)
	}
	if session.EndedAt != nil {
		endedAt := *session.EndedAt
		copied.EndedAt = &endedAt
	}
	if session.Duration != nil {
		duration := *session.Duration
		copied.Duration = &duration
	}
	return &copied
}
