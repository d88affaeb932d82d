package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/koscakluka/aria-core/core/conversations"
	"github.com/koscakluka/aria-core/core/events"
	"github.com/koscakluka/aria-core/core/llms"
	"github.com/koscakluka/aria-core/core/sessions"
	"github.com/koscakluka/aria-core/core/speechtotext"
)

type scriptedTranscriber struct {
	transcript *speechtotext.Transcript
	err        error

	mu       sync.Mutex
	calls    int
	gotAudio []byte
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, audio []byte, _ ...speechtotext.TranscriptionOption) (*speechtotext.Transcript, error) {
	s.mu.Lock()
	s.calls++
	s.gotAudio = audio
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	transcript := *s.transcript
	return &transcript, nil
}

func (s *scriptedTranscriber) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type scriptedCompleter struct {
	results []*llms.CompletionResult
	err     error

	mu          sync.Mutex
	calls       int
	gotMessages [][]llms.Message
	gotOptions  []llms.PromptOptions
}

func (s *scriptedCompleter) Complete(_ context.Context, messages []llms.Message, opts ...llms.PromptOption) (*llms.CompletionResult, error) {
	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	s.calls++
	calls := s.calls
	s.gotMessages = append(s.gotMessages, messages)
	s.gotOptions = append(s.gotOptions, options)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	result := *s.results[min(calls-1, len(s.results)-1)]
	return &result, nil
}

func (s *scriptedCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestOrchestrator(t *testing.T, opts ...OrchestratorOption) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(opts...)
	t.Cleanup(o.Close)
	return o
}

func startedSession(t *testing.T, o *Orchestrator) *sessions.Session {
	t.Helper()
	session, err := o.StartSession(context.Background(), sessions.Config{})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	return session
}

func TestStartSessionRunsStartSequence(t *testing.T) {
	o := newTestOrchestrator(t)

	session, err := o.StartSession(context.Background(), sessions.Config{}, sessions.WithID("s1"))
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	if session.ID != "s1" {
		t.Fatalf("expected supplied id to be kept, got %q", session.ID)
	}
	if session.Status != sessions.StatusActive {
		t.Fatalf("expected session to be active after start sequence, got %q", session.Status)
	}
	if history := o.History("s1"); len(history) != 0 {
		t.Fatalf("expected empty ledger for a fresh session, got %d messages", len(history))
	}
}

func TestProcessTurnAppendsUserThenAssistant(t *testing.T) {
	transcriber := &scriptedTranscriber{transcript: &speechtotext.Transcript{Text: "hours?", Confidence: 0.95, IsFinal: true}}
	completer := &scriptedCompleter{results: []*llms.CompletionResult{{Content: "9-5 Mon-Fri"}}}

	o := newTestOrchestrator(t,
		WithSpeechToTextClient(transcriber),
		WithLLMClient(completer),
	)
	session := startedSession(t, o)

	result, err := o.ProcessTurn(context.Background(), session.ID, []byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("failed to process turn: %v", err)
	}

	if result.Transcript.Text != "hours?" {
		t.Fatalf("expected transcript %q, got %q", "hours?", result.Transcript.Text)
	}
	if result.Response != "9-5 Mon-Fri" {
		t.Fatalf("expected response %q, got %q", "9-5 Mon-Fri", result.Response)
	}
	if result.ToolCalls != nil {
		t.Fatalf("expected no tool calls, got %v", result.ToolCalls)
	}

	history := o.History(session.ID)
	if len(history) != 2 {
		t.Fatalf("expected exactly 2 messages after a turn, got %d", len(history))
	}
	if history[0].Role != conversations.RoleUser || history[0].Content != "hours?" {
		t.Fatalf("expected first message to be the user transcript, got %+v", history[0])
	}
	if history[1].Role != conversations.RoleAssistant || history[1].Content != "9-5 Mon-Fri" {
		t.Fatalf("expected second message to be the assistant response, got %+v", history[1])
	}
}

func TestProcessTurnEventOrdering(t *testing.T) {
	transcriber := &scriptedTranscriber{transcript: &speechtotext.Transcript{Text: "what's on today?", IsFinal: true}}
	completer := &scriptedCompleter{results: []*llms.CompletionResult{{
		Content: "checking the calendar",
		ToolCalls: []llms.ToolCall{
			{ID: "call-1", Name: "calendar_lookup"},
			{ID: "call-2", Name: "weather_lookup"},
		},
	}}}

	o := newTestOrchestrator(t,
		WithSpeechToTextClient(transcriber),
		WithLLMClient(completer),
	)
	session := startedSession(t, o)

	var kinds []events.Kind
	o.Events().Subscribe(func(event events.Event) {
		kinds = append(kinds, event.Kind())
	})

	if _, err := o.ProcessTurn(context.Background(), session.ID, []byte{0x01}); err != nil {
		t.Fatalf("failed to process turn: %v", err)
	}

	expected := []events.Kind{
		events.KindAudioReceived,
		events.KindTranscriptFinal,
		events.KindCompletionStarted,
		events.KindCompletionResponse,
		events.KindToolCallRequested,
		events.KindToolCallRequested,
	}
	if len(kinds) != len(expected) {
		t.Fatalf("expected %d events, got %d: %v", len(expected), len(kinds), kinds)
	}
	for i, kind := range expected {
		if kinds[i] != kind {
			t.Fatalf("expected event %d to be %q, got %q (all: %v)", i, kind, kinds[i], kinds)
		}
	}
}

func TestProcessTurnReplaysHistoryWithSystemPrompt(t *testing.T) {
	transcriber := &scriptedTranscriber{transcript: &speechtotext.Transcript{Text: "second question", IsFinal: true}}
	completer := &scriptedCompleter{results: []*llms.CompletionResult{{Content: "answer"}}}

	o := newTestOrchestrator(t,
		WithSpeechToTextClient(transcriber),
		WithLLMClient(completer),
		WithSystemPrompt("be brief"),
	)
	session := startedSession(t, o)

	o.ledger.Append(session.ID, conversations.Message{Role: conversations.RoleUser, Content: "first question"})
	o.ledger.Append(session.ID, conversations.Message{Role: conversations.RoleAssistant, Content: "first answer"})

	if _, err := o.ProcessTurn(context.Background(), session.ID, []byte{0x01}); err != nil {
		t.Fatalf("failed to process turn: %v", err)
	}

	if completer.callCount() != 1 {
		t.Fatalf("expected one completion call, got %d", completer.callCount())
	}
	if got := completer.gotOptions[0].Instructions; got != "be brief" {
		t.Fatalf("expected system prompt to reach the backend, got %q", got)
	}

	messages := completer.gotMessages[0]
	if len(messages) != 3 {
		t.Fatalf("expected the full ledger to be replayed, got %d messages", len(messages))
	}
	if messages[0].Content != "first question" || messages[1].Content != "first answer" || messages[2].Content != "second question" {
		t.Fatalf("expected history replayed in conversation order, got %+v", messages)
	}
}

func TestProcessTurnTranscriptionFailureLeavesLedgerUntouched(t *testing.T) {
	transcriber := &scriptedTranscriber{err: errors.New("upstream hiccup")}
	completer := &scriptedCompleter{results: []*llms.CompletionResult{{Content: "unused"}}}

	o := newTestOrchestrator(t,
		WithSpeechToTextClient(transcriber),
		WithLLMClient(completer),
	)
	session := startedSession(t, o)

	var kinds []events.Kind
	o.Events().Subscribe(func(event events.Event) {
		kinds = append(kinds, event.Kind())
	})

	_, err := o.ProcessTurn(context.Background(), session.ID, []byte{0x01})
	if err == nil {
		t.Fatalf("expected transcription failure to propagate")
	}

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.Backend != BackendSpeech {
		t.Fatalf("expected speech ProviderError, got %v", err)
	}
	if completer.callCount() != 0 {
		t.Fatalf("expected no completion attempt after transcription failure, got %d calls", completer.callCount())
	}
	if got := len(o.History(session.ID)); got != 0 {
		t.Fatalf("expected ledger untouched after transcription failure, got %d messages", got)
	}

	for _, kind := range kinds {
		if kind == events.KindTranscriptFinal || kind == events.KindCompletionStarted {
			t.Fatalf("expected no turn progress events after the failure, got %v", kinds)
		}
	}
}

func TestProcessTurnCompletionFailureKeepsUserMessage(t *testing.T) {
	transcriber := &scriptedTranscriber{transcript: &speechtotext.Transcript{Text: "hello?", IsFinal: true}}
	completer := &scriptedCompleter{err: errors.New("model overloaded")}

	o := newTestOrchestrator(t,
		WithSpeechToTextClient(transcriber),
		WithLLMClient(completer),
	)
	session := startedSession(t, o)

	_, err := o.ProcessTurn(context.Background(), session.ID, []byte{0x01})
	if err == nil {
		t.Fatalf("expected completion failure to propagate")
	}

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.Backend != BackendLLM {
		t.Fatalf("expected llm ProviderError, got %v", err)
	}

	history := o.History(session.ID)
	if len(history) != 1 {
		t.Fatalf("expected the user message to survive the failed completion, got %d messages", len(history))
	}
	if history[0].Role != conversations.RoleUser || history[0].Content != "hello?" {
		t.Fatalf("expected the surviving message to be the user transcript, got %+v", history[0])
	}
}

func TestProcessTurnUnknownSession(t *testing.T) {
	o := newTestOrchestrator(t,
		WithSpeechToTextClient(&scriptedTranscriber{transcript: &speechtotext.Transcript{Text: "hi"}}),
		WithLLMClient(&scriptedCompleter{results: []*llms.CompletionResult{{Content: "hi"}}}),
	)

	_, err := o.ProcessTurn(context.Background(), "missing", []byte{0x01})
	if !errors.Is(err, sessions.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestProcessTurnWithoutConfiguredBackends(t *testing.T) {
	o := newTestOrchestrator(t)
	session := startedSession(t, o)

	_, err := o.ProcessTurn(context.Background(), session.ID, []byte{0x01})
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestSubmitToolResultAppendsToolThenAssistant(t *testing.T) {
	completer := &scriptedCompleter{results: []*llms.CompletionResult{{Content: "it is sunny"}}}

	o := newTestOrchestrator(t, WithLLMClient(completer))
	session := startedSession(t, o)

	o.ledger.Append(session.ID, conversations.Message{Role: conversations.RoleUser, Content: "weather?"})
	o.ledger.Append(session.ID, conversations.Message{Role: conversations.RoleAssistant, Content: "let me check"})

	var resolved []events.Event
	o.Events().SubscribeKind(events.KindToolCallResolved, func(event events.Event) {
		resolved = append(resolved, event)
	})

	call := llms.ToolCall{ID: "call-1", Name: "weather_lookup", Arguments: map[string]any{"city": "Zagreb"}}
	response, err := o.SubmitToolResult(context.Background(), session.ID, call, map[string]any{"forecast": "sunny"})
	if err != nil {
		t.Fatalf("failed to submit tool result: %v", err)
	}
	if response != "it is sunny" {
		t.Fatalf("expected the new assistant text, got %q", response)
	}

	history := o.History(session.ID)
	if len(history) != 4 {
		t.Fatalf("expected exactly 2 appended messages, got %d total", len(history))
	}

	toolMessage := history[2]
	if toolMessage.Role != conversations.RoleTool {
		t.Fatalf("expected a tool message, got %+v", toolMessage)
	}
	if toolMessage.ToolName != "weather_lookup" || toolMessage.ToolCallID != "call-1" {
		t.Fatalf("expected the tool message to carry name and call id, got %+v", toolMessage)
	}
	if toolMessage.Content != `{"forecast":"sunny"}` {
		t.Fatalf("expected serialized tool result, got %q", toolMessage.Content)
	}
	if history[3].Role != conversations.RoleAssistant || history[3].Content != "it is sunny" {
		t.Fatalf("expected the assistant follow-up last, got %+v", history[3])
	}

	if len(resolved) != 1 {
		t.Fatalf("expected one tool call resolved event, got %d", len(resolved))
	}
}

func TestSubmitToolResultPassesStringResultsThrough(t *testing.T) {
	completer := &scriptedCompleter{results: []*llms.CompletionResult{{Content: "done"}}}

	o := newTestOrchestrator(t, WithLLMClient(completer))
	session := startedSession(t, o)

	if _, err := o.SubmitToolResult(context.Background(), session.ID,
		llms.ToolCall{ID: "call-1", Name: "echo"}, "already a string"); err != nil {
		t.Fatalf("failed to submit tool result: %v", err)
	}

	history := o.History(session.ID)
	if history[0].Content != "already a string" {
		t.Fatalf("expected string results untouched, got %q", history[0].Content)
	}
}

func TestEndSessionClearsLedgerAndEmitsDuration(t *testing.T) {
	o := newTestOrchestrator(t)
	session := startedSession(t, o)

	o.ledger.Append(session.ID, conversations.Message{Role: conversations.RoleUser, Content: "bye"})

	var ended []events.Event
	o.Events().SubscribeKind(events.KindSessionEnded, func(event events.Event) {
		ended = append(ended, event)
	})

	if err := o.EndSession(session.ID); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}

	if got := len(o.History(session.ID)); got != 0 {
		t.Fatalf("expected ledger discarded on session end, got %d messages", got)
	}
	if len(ended) != 1 {
		t.Fatalf("expected one session ended event, got %d", len(ended))
	}

	endedSession, ok := o.Session(session.ID)
	if !ok {
		t.Fatalf("expected the ended session to still be stored")
	}
	if endedSession.Status != sessions.StatusEnded || endedSession.Duration == nil {
		t.Fatalf("expected a terminal session with duration, got %+v", endedSession)
	}
	if event := ended[0].(events.SessionEnded); event.Duration != *endedSession.Duration {
		t.Fatalf("expected event duration %v, got %v", *endedSession.Duration, event.Duration)
	}
}

func TestCloseEndsActiveSessions(t *testing.T) {
	o := NewOrchestrator()

	first := startedSession(t, o)
	second := startedSession(t, o)

	o.Close()
	o.Close() // safe to repeat

	for _, id := range []string{first.ID, second.ID} {
		session, ok := o.Session(id)
		if !ok {
			t.Fatalf("expected session %q to survive close", id)
		}
		if session.Status != sessions.StatusEnded {
			t.Fatalf("expected session %q ended on close, got %q", id, session.Status)
		}
	}
}

func TestCloseClearsLedgersOfInactiveSessions(t *testing.T) {
	o := NewOrchestrator()
	session := startedSession(t, o)

	o.ledger.Append(session.ID, conversations.Message{Role: conversations.RoleUser, Content: "hold on"})
	if err := o.store.Transition(session.ID, sessions.StatusPaused); err != nil {
		t.Fatalf("failed to pause session: %v", err)
	}

	o.Close()

	if got := len(o.History(session.ID)); got != 0 {
		t.Fatalf("expected the paused session's ledger cleared on close, got %d messages", got)
	}
}

func TestDeleteSessionDropsLedger(t *testing.T) {
	o := newTestOrchestrator(t)
	session := startedSession(t, o)

	o.ledger.Append(session.ID, conversations.Message{Role: conversations.RoleUser, Content: "hi"})

	if !o.DeleteSession(session.ID) {
		t.Fatalf("expected delete of a live session to report true")
	}
	if o.DeleteSession(session.ID) {
		t.Fatalf("expected delete of a missing session to report false")
	}
	if got := len(o.History(session.ID)); got != 0 {
		t.Fatalf("expected ledger dropped with the session, got %d messages", got)
	}
}

func TestSessionConfigSystemPromptOverridesDefault(t *testing.T) {
	transcriber := &scriptedTranscriber{transcript: &speechtotext.Transcript{Text: "hi", IsFinal: true}}
	completer := &scriptedCompleter{results: []*llms.CompletionResult{{Content: "hello"}}}

	o := newTestOrchestrator(t,
		WithSpeechToTextClient(transcriber),
		WithLLMClient(completer),
		WithSystemPrompt("default prompt"),
	)

	session, err := o.StartSession(context.Background(), sessions.Config{SystemPrompt: "session prompt"})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	if _, err := o.ProcessTurn(context.Background(), session.ID, []byte{0x01}); err != nil {
		t.Fatalf("failed to process turn: %v", err)
	}

	if got := completer.gotOptions[0].Instructions; got != "session prompt" {
		t.Fatalf("expected session config prompt to win, got %q", got)
	}
}

func TestConcurrentTurnsOnSeparateSessions(t *testing.T) {
	transcriber := &scriptedTranscriber{transcript: &speechtotext.Transcript{Text: "ping", IsFinal: true}}
	completer := &scriptedCompleter{results: []*llms.CompletionResult{{Content: "pong"}}}

	o := newTestOrchestrator(t,
		WithSpeechToTextClient(transcriber),
		WithLLMClient(completer),
	)

	const sessionCount = 8
	ids := make([]string, 0, sessionCount)
	for i := range sessionCount {
		session, err := o.StartSession(context.Background(), sessions.Config{}, sessions.WithID(fmt.Sprintf("s%d", i)))
		if err != nil {
			t.Fatalf("failed to start session %d: %v", i, err)
		}
		ids = append(ids, session.ID)
	}

	errs := make(chan error, sessionCount)
	for _, id := range ids {
		go func() {
			_, err := o.ProcessTurn(context.Background(), id, []byte{0x01})
			errs <- err
		}()
	}
	for range sessionCount {
		if err := <-errs; err != nil {
			t.Fatalf("turn failed: %v", err)
		}
	}

	for _, id := range ids {
		if got := len(o.History(id)); got != 2 {
			t.Fatalf("expected 2 messages for session %q, got %d", id, got)
		}
	}
}
