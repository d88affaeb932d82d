package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/koscakluka/aria-core/core/conversations"
	"github.com/koscakluka/aria-core/core/events"
	"github.com/koscakluka/aria-core/core/sessions"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Orchestrator ties the session store, the conversation ledger, the
// transcription and completion steps, and the event bus into one turn
// pipeline. It owns all conversational state for the process lifetime;
// nothing is persisted.
type Orchestrator struct {
	store  *sessions.Store
	ledger *conversations.Ledger
	bus    *events.Bus

	// speechToText is the transcription step facade wrapping the
	// configured client.
	speechToText speechToText
	// llm is the completion step facade wrapping the configured client.
	llm llm

	systemPrompt string

	closeOnce   sync.Once
	baseContext context.Context
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:       sessions.NewStore(),
		ledger:      conversations.NewLedger(),
		bus:         events.NewBus(),
		baseContext: context.Background(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Events exposes the orchestrator's event bus for subscription. Listeners
// run synchronously on the publishing goroutine.
func (o *Orchestrator) Events() *events.Bus { return o.bus }

// StartSession allocates a session, runs its start sequence to
// StatusActive, and emits a session started event. The session's ledger
// starts empty.
func (o *Orchestrator) StartSession(ctx context.Context, config sessions.Config, opts ...sessions.CreateOption) (*sessions.Session, error) {
	session, err := o.store.Create(config, opts...)
	if err != nil {
		return nil, err
	}

	// The store is permissive about edges; the start sequence is the one
	// place the expected Idle -> Connecting -> Active path is driven.
	if err := o.store.Transition(session.ID, sessions.StatusConnecting); err != nil {
		return nil, err
	}
	if err := o.store.Transition(session.ID, sessions.StatusActive); err != nil {
		return nil, err
	}

	o.bus.Publish(events.NewSessionStarted(session.ID))

	session, _ = o.store.Get(session.ID)
	return session, nil
}

// Session is a non-failing lookup of a live session.
func (o *Orchestrator) Session(id string) (*sessions.Session, bool) {
	return o.store.Get(id)
}

// EndSession transitions the session to its terminal status, emits a
// session ended event carrying the computed duration, and discards the
// session's ledger.
func (o *Orchestrator) EndSession(id string) error {
	if err := o.store.End(id); err != nil {
		return err
	}

	duration := 0.0
	if session, ok := o.store.Get(id); ok && session.Duration != nil {
		duration = *session.Duration
	}
	o.bus.Publish(events.NewSessionEnded(id, duration))
	o.ledger.Clear(id)

	return nil
}

// DeleteSession removes the session and its ledger unconditionally,
// reporting whether the session existed.
func (o *Orchestrator) DeleteSession(id string) bool {
	existed := o.store.Delete(id)
	o.ledger.Clear(id)
	return existed
}

// ActiveSessions lists sessions that are connecting or active.
func (o *Orchestrator) ActiveSessions() []sessions.Session { return o.store.ListActive() }

// SweepExpired removes ended sessions older than maxAge along with their
// ledgers, returning how many were removed. Not self-scheduling.
func (o *Orchestrator) SweepExpired(maxAge time.Duration) int {
	// Ended sessions had their ledgers cleared on EndSession already; the
	// sweep only has to drop the session records.
	return o.store.SweepExpired(maxAge)
}

// SessionStats returns point-in-time session counts.
func (o *Orchestrator) SessionStats() sessions.Stats { return o.store.Stats() }

// History returns the session's conversation so far, oldest first. Unknown
// sessions read as empty.
func (o *Orchestrator) History(sessionID string) []conversations.Message {
	return o.ledger.History(sessionID)
}

// Close releases provider resources first, then transitions every
// still-active session to its terminal status, then clears all ledgers.
// That order prevents further turn events being emitted for sessions mid
// teardown. Safe to call more than once.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		if err := o.speechToText.close(o.baseContext); err != nil {
			recordedErr := fmt.Errorf("failed to close speech-to-text client: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		if err := o.llm.close(o.baseContext); err != nil {
			recordedErr := fmt.Errorf("failed to close llm client: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		for _, session := range o.store.ListActive() {
			if err := o.EndSession(session.ID); err != nil {
				logger.Warn("failed to end session during close", "session_id", session.ID, "error", err)
			}
		}

		// EndSession only covers connecting/active sessions; idle and
		// paused ones still hold history at this point.
		o.ledger.Reset()
	})
}
