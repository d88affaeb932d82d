package conversations

// Role describes who a ledger message is from.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry in a session's conversation ledger. Messages
// are immutable once appended; the ordered sequence is replayed verbatim to
// the completion backend.
type Message struct {
	Role    Role
	Content string

	// ToolName and ToolCallID are set only on RoleTool messages, tying a
	// tool result back to the tool call that requested it.
	ToolName   string
	ToolCallID string
}
