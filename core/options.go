package orchestration

import (
	"context"

	"github.com/koscakluka/aria-core/core/events"
	"github.com/koscakluka/aria-core/core/llms"
	"github.com/koscakluka/aria-core/core/speechtotext"
)

type OrchestratorOption func(*Orchestrator)

// SpeechToText is the transcription capability consumed by the core. One
// conforming implementation is expected per deployment; see the deepgram
// subpackage for one.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, opts ...speechtotext.TranscriptionOption) (*speechtotext.Transcript, error)
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speechToText.set(client)
	}
}

// LLM is the completion capability consumed by the core. One conforming
// implementation is expected per deployment; see the groq subpackage for
// one.
type LLM interface {
	Complete(ctx context.Context, messages []llms.Message, opts ...llms.PromptOption) (*llms.CompletionResult, error)
}

func WithLLMClient(client LLM) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm.set(client)
	}
}

// WithSystemPrompt sets the orchestrator-wide system prompt, prepended to
// every completion. A session config with its own SystemPrompt overrides
// it for that session.
func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.systemPrompt = prompt
	}
}

// WithTools sets the tools exposed to the completion backend. Repeating
// this option overwrites the previous set.
func WithTools(tools ...llms.Tool) OrchestratorOption {
	return func(o *Orchestrator) { o.llm.setTools(tools...) }
}

// WithToolChoice steers the backend's tool usage across all turns.
func WithToolChoice(choice llms.ToolChoice) OrchestratorOption {
	return func(o *Orchestrator) { o.llm.setToolChoice(choice) }
}

// WithEventBus injects an externally owned event bus instead of the
// orchestrator allocating its own, letting several components share one
// subscriber registry.
func WithEventBus(bus *events.Bus) OrchestratorOption {
	return func(o *Orchestrator) {
		if bus != nil {
			o.bus = bus
		}
	}
}
