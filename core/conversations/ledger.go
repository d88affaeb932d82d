package conversations

import (
	"slices"
	"sync"
)

// Ledger owns the ordered, append-only message history of every session.
// Entries are never mutated or reordered once appended; only Clear removes
// them, and only as a whole.
//
// The ledger serializes its own map access, but it does not serialize turns:
// two overlapping turns for the same session may interleave their appends.
// Keeping at most one turn in flight per session is the caller's job.
type Ledger struct {
	mu       sync.Mutex
	messages map[string][]Message
}

func NewLedger() *Ledger {
	return &Ledger{messages: map[string][]Message{}}
}

// Append adds a message to the end of the session's history.
func (l *Ledger) Append(sessionID string, message Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages[sessionID] = append(l.messages[sessionID], message)
}

// History returns a copy of the session's messages, oldest first. Unknown
// sessions read as an empty history; this is not an error.
func (l *Ledger) History(sessionID string) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.messages[sessionID])
}

// Len returns the number of messages recorded for the session.
func (l *Ledger) Len(sessionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.messages[sessionID])
}

// Clear discards the session's entire history.
func (l *Ledger) Clear(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.messages, sessionID)
}

// Reset discards every session's history at once.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = map[string][]Message{}
}
