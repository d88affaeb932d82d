package events

import "github.com/koscakluka/aria-core/core/llms"

const (
	// KindToolCallRequested identifies a backend request for tool
	// execution.
	KindToolCallRequested Kind = "tool_call.requested"
	// KindToolCallResolved identifies a tool result folded back into the
	// conversation.
	KindToolCallResolved Kind = "tool_call.resolved"
)

// ToolCallRequested marks the backend asking for a tool invocation. Events
// are emitted per call, in the order the backend returned them; execution
// is the caller's responsibility.
type ToolCallRequested struct {
	Base
	SessionID string
	Call      llms.ToolCall
}

// NewToolCallRequested creates a tool call requested event.
func NewToolCallRequested(sessionID string, call llms.ToolCall) ToolCallRequested {
	return ToolCallRequested{Base: NewBase(KindToolCallRequested), SessionID: sessionID, Call: call}
}

// ToolCallResolved marks a tool result being reported back and responded
// to.
type ToolCallResolved struct {
	Base
	SessionID string
	CallID    string
	ToolName  string
	// Content is the serialized tool result as appended to the
	// conversation.
	Content string
}

// NewToolCallResolved creates a tool call resolved event.
func NewToolCallResolved(sessionID, callID, toolName, content string) ToolCallResolved {
	return ToolCallResolved{Base: NewBase(KindToolCallResolved), SessionID: sessionID, CallID: callID, ToolName: toolName, Content: content}
}
