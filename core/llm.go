package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/aria-core/core/conversations"
	"github.com/koscakluka/aria-core/core/llms"
)

// llm is the completion step of the turn pipeline. It builds the effective
// message sequence (system prompt, when present, prepended ahead of the
// conversation replayed verbatim), delegates to the configured client, and
// normalizes failures into ProviderError. It never touches the ledger.
type llm struct {
	// client is the configured LLM implementation.
	client LLM
	// tools stores the effective tool list exposed to model calls.
	tools      []llms.Tool
	toolChoice llms.ToolChoice
}

func (runtime *llm) set(client LLM) {
	if runtime == nil {
		return
	}

	runtime.client = client
}

func (runtime *llm) setTools(tools ...llms.Tool) {
	if runtime == nil {
		return
	}

	runtime.tools = append([]llms.Tool(nil), tools...)
}

func (runtime *llm) setToolChoice(choice llms.ToolChoice) {
	if runtime == nil {
		return
	}

	runtime.toolChoice = choice
}

func (runtime *llm) isConfigured() bool {
	return runtime != nil && runtime.client != nil
}

func (runtime *llm) complete(ctx context.Context, history []conversations.Message, systemPrompt string) (*llms.CompletionResult, error) {
	if !runtime.isConfigured() {
		return nil, fmt.Errorf("llm client: %w", ErrNotInitialized)
	}

	opts := []llms.PromptOption{}
	if systemPrompt != "" {
		opts = append(opts, llms.WithSystemPrompt(systemPrompt))
	}
	if len(runtime.tools) > 0 {
		opts = append(opts, llms.WithTools(runtime.tools...))
		if runtime.toolChoice != "" {
			opts = append(opts, llms.WithToolChoice(runtime.toolChoice))
		}
	}

	result, err := runtime.client.Complete(ctx, toLLMMessages(history), opts...)
	if err != nil {
		return nil, &ProviderError{Backend: BackendLLM, Err: err}
	}
	if result == nil {
		return nil, &ProviderError{Backend: BackendLLM, Err: fmt.Errorf("backend returned no completion")}
	}

	result.Role = llms.RoleAssistant
	// Absent and empty tool call lists are the same "no tool calls".
	if len(result.ToolCalls) == 0 {
		result.ToolCalls = nil
	}

	return result, nil
}

func (runtime *llm) close(ctx context.Context) error {
	if !runtime.isConfigured() {
		return nil
	}

	switch c := runtime.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close llm client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close llm client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

func toLLMMessages(history []conversations.Message) []llms.Message {
	messages := make([]llms.Message, 0, len(history))
	for _, message := range history {
		messages = append(messages, llms.Message{
			Role:       llms.Role(message.Role),
			Content:    message.Content,
			ToolName:   message.ToolName,
			ToolCallID: message.ToolCallID,
		})
	}
	return messages
}
