package llms

// ToolChoice steers whether the backend may, must, or must not call tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

type PromptOptions struct {
	Instructions string
	Tools        []Tool
	ToolChoice   ToolChoice
	Temperature  *float64
	MaxTokens    *int
}

type PromptOption func(*PromptOptions)

// WithSystemPrompt sets the system prompt for the completion. The backend
// adapter prepends it as a system message ahead of the conversation.
// Repeating this option overwrites the previous system prompt.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = prompt
	}
}

// WithTools adds tools to the completion. Repeating this option
// sequentially adds more tools.
func WithTools(tools ...Tool) PromptOption {
	return func(opts *PromptOptions) {
		opts.Tools = append(opts.Tools, tools...)
	}
}

// WithToolChoice sets how the backend should decide on tool usage. Has no
// effect when no tools are passed.
func WithToolChoice(choice ToolChoice) PromptOption {
	return func(opts *PromptOptions) {
		opts.ToolChoice = choice
	}
}

func WithTemperature(temperature float64) PromptOption {
	return func(opts *PromptOptions) {
		opts.Temperature = &temperature
	}
}

func WithMaxTokens(maxTokens int) PromptOption {
	return func(opts *PromptOptions) {
		opts.MaxTokens = &maxTokens
	}
}
