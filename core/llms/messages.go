package llms

// Role describes who a message is from.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single message handed to the completion backend. The
// sequence order is conversation order and is replayed verbatim.
type Message struct {
	Role    Role
	Content string

	// ToolName and ToolCallID are set on RoleTool messages to report a
	// tool result back to the backend.
	ToolName   string
	ToolCallID string
}

// ToolCall is a structured request from the backend asking the caller to
// execute an external function and report back. A tool call stays open from
// the moment it is surfaced until a tool message with the matching ID is
// appended to the conversation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Usage is the token accounting reported by the backend, when available.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// FinishReason reports why the backend stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// CompletionResult is the normalized result of one completion call.
type CompletionResult struct {
	Content string
	// Role is always RoleAssistant; kept on the struct so the result can
	// be folded into a conversation without special-casing.
	Role Role

	// ToolCalls is present only when the backend actually requested tool
	// invocations. A nil and an empty slice both mean "no tool calls".
	ToolCalls []ToolCall

	Usage        *Usage
	FinishReason FinishReason
}
