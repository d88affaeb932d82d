package orchestration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/koscakluka/aria-core/core/conversations"
	"github.com/koscakluka/aria-core/core/events"
	"github.com/koscakluka/aria-core/core/llms"
	"github.com/koscakluka/aria-core/core/sessions"
	"github.com/koscakluka/aria-core/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TurnResult is what one conversational turn produced.
type TurnResult struct {
	Transcript speechtotext.Transcript
	Response   string
	// ToolCalls is non-empty when the backend requested tool invocations.
	// Executing them and reporting back via SubmitToolResult is the
	// caller's responsibility.
	ToolCalls []llms.ToolCall
}

// ProcessTurn executes exactly one conversational turn: transcribe the
// audio, fold the transcript into the conversation, complete against the
// accumulated history, fold the response in, and surface any requested tool
// calls. Events are published at each checkpoint.
//
// A failed transcription leaves the ledger untouched; a failed completion
// leaves the already-appended user message in place, so a retried call
// continues from a consistent point.
//
// The orchestrator does not serialize turns per session: overlapping
// ProcessTurn calls for the same session may interleave their ledger
// appends and corrupt conversational order. Callers must keep at most one
// turn in flight per session.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID string, audio []byte) (*TurnResult, error) {
	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	// Existence is a precondition; status is not checked. Driving a turn
	// against a paused or idle session is the caller's call to make.
	session, ok := o.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, sessions.ErrSessionNotFound)
	}

	o.bus.Publish(events.NewAudioReceived(sessionID, audio))

	transcript, err := o.speechToText.transcribe(ctx, audio, session.Config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.bus.Publish(events.NewPipelineError(sessionID, "transcription", err))
		return nil, err
	}
	o.bus.Publish(events.NewTranscriptFinal(sessionID, *transcript))

	o.ledger.Append(sessionID, conversations.Message{
		Role:    conversations.RoleUser,
		Content: transcript.Text,
	})

	history := o.ledger.History(sessionID)
	o.bus.Publish(events.NewCompletionStarted(sessionID, len(history)))

	result, err := o.llm.complete(ctx, history, o.systemPromptFor(session))
	if err != nil {
		// The user message stays appended: "user spoke, agent failed to
		// respond" is the audit record a caller-driven retry needs.
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.bus.Publish(events.NewPipelineError(sessionID, "completion", err))
		return nil, err
	}

	o.ledger.Append(sessionID, conversations.Message{
		Role:    conversations.RoleAssistant,
		Content: result.Content,
	})
	o.bus.Publish(events.NewCompletionResponse(sessionID, result.Content, result.Usage))

	for _, call := range result.ToolCalls {
		o.bus.Publish(events.NewToolCallRequested(sessionID, call))
	}

	return &TurnResult{
		Transcript: *transcript,
		Response:   result.Content,
		ToolCalls:  result.ToolCalls,
	}, nil
}

// SubmitToolResult resumes a turn after the caller executed a requested
// tool. The serialized result is folded into the conversation as a tool
// message, the completion backend is re-invoked with the extended history,
// and the new assistant response is returned.
//
// The call is trusted to be the same ToolCall the orchestrator surfaced; no
// correlation against currently open tool calls is enforced.
func (o *Orchestrator) SubmitToolResult(ctx context.Context, sessionID string, call llms.ToolCall, result any) (string, error) {
	ctx, span := tracer.Start(ctx, "submit tool result")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("tool.name", call.Name),
	)

	session, ok := o.store.Get(sessionID)
	if !ok {
		return "", fmt.Errorf("session %q: %w", sessionID, sessions.ErrSessionNotFound)
	}

	content, err := serializeToolResult(result)
	if err != nil {
		return "", fmt.Errorf("failed to serialize result of tool %q: %w", call.Name, err)
	}

	o.ledger.Append(sessionID, conversations.Message{
		Role:       conversations.RoleTool,
		Content:    content,
		ToolName:   call.Name,
		ToolCallID: call.ID,
	})

	response, err := o.llm.complete(ctx, o.ledger.History(sessionID), o.systemPromptFor(session))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.bus.Publish(events.NewPipelineError(sessionID, "completion", err))
		return "", err
	}

	o.ledger.Append(sessionID, conversations.Message{
		Role:    conversations.RoleAssistant,
		Content: response.Content,
	})
	o.bus.Publish(events.NewToolCallResolved(sessionID, call.ID, call.Name, content))

	// The follow-up response may itself request more tools; surface those
	// the same way a fresh turn would.
	for _, nextCall := range response.ToolCalls {
		o.bus.Publish(events.NewToolCallRequested(sessionID, nextCall))
	}

	return response.Content, nil
}

func (o *Orchestrator) systemPromptFor(session *sessions.Session) string {
	if session.Config.SystemPrompt != "" {
		return session.Config.SystemPrompt
	}
	return o.systemPrompt
}

func serializeToolResult(result any) (string, error) {
	switch typed := result.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case []byte:
		return string(typed), nil
	default:
		serialized, err := json.Marshal(typed)
		if err != nil {
			return "", err
		}
		return string(serialized), nil
	}
}
