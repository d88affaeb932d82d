package groq

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/koscakluka/aria-core/core/llms"
)

type message struct {
	Role       messageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []toolCall  `json:"tool_calls,omitempty"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "tool"
)

type toolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

func toWireMessages(instructions string, messages []llms.Message) []message {
	wireMessages := []message{}
	if instructions != "" {
		wireMessages = append(wireMessages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case llms.RoleSystem:
			wireMessages = append(wireMessages, message{
				Role:    messageRoleSystem,
				Content: msg.Content,
			})
		case llms.RoleUser:
			wireMessages = append(wireMessages, message{
				Role:    messageRoleUser,
				Content: msg.Content,
			})
		case llms.RoleAssistant:
			wireMessages = append(wireMessages, message{
				Role:    messageRoleAssistant,
				Content: msg.Content,
			})
		case llms.RoleTool:
			// The chat completions protocol requires a tool message to
			// answer an assistant tool_calls entry. The conversation only
			// records the result, so the requesting entry is synthesized
			// here when the preceding assistant message lacks it.
			if !precededByToolCall(wireMessages, msg.ToolCallID) {
				wireMessages = append(wireMessages, message{
					Role: messageRoleAssistant,
					ToolCalls: []toolCall{{
						ID:       msg.ToolCallID,
						Type:     "function",
						Function: toolCallFunction{Name: msg.ToolName, Arguments: "{}"},
					}},
				})
			}
			wireMessages = append(wireMessages, message{
				Role:       messageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		}
	}

	return wireMessages
}

func precededByToolCall(wireMessages []message, toolCallID string) bool {
	for i := len(wireMessages) - 1; i >= 0; i-- {
		if wireMessages[i].Role == messageRoleTool {
			continue
		}
		if wireMessages[i].Role != messageRoleAssistant {
			return false
		}
		for _, call := range wireMessages[i].ToolCalls {
			if call.ID == toolCallID {
				return true
			}
		}
		return false
	}
	return false
}

func toToolCalls(wireCalls []toolCall) []llms.ToolCall {
	var calls []llms.ToolCall
	for _, wireCall := range wireCalls {
		call := llms.ToolCall{
			ID:   wireCall.ID,
			Name: wireCall.Function.Name,
		}
		if wireCall.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(wireCall.Function.Arguments), &call.Arguments); err != nil {
				logger.Warn("failed to parse tool call arguments",
					"tool", wireCall.Function.Name, "error", err)
			}
		}
		calls = append(calls, call)
	}
	return calls
}

func toFinishReason(wireReason string) llms.FinishReason {
	switch wireReason {
	case "stop":
		return llms.FinishReasonStop
	case "length":
		return llms.FinishReasonLength
	case "tool_calls", "function_call":
		return llms.FinishReasonToolCalls
	case "content_filter":
		return llms.FinishReasonContentFilter
	}
	return ""
}
