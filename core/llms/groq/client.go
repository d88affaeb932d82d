package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/aria-core/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	url          = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel = "llama-3.3-70b-versatile"
)

// Client calls the Groq OpenAI-compatible chat completions API. It
// satisfies the orchestration core's LLM capability.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// NewClient creates a Groq client. The API key is taken from the
// GROQ_API_KEY environment variable unless supplied with WithAPIKey.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:    defaultModel,
		endpoint: url,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		apiKey, ok := os.LookupEnv("GROQ_API_KEY")
		if !ok {
			return nil, fmt.Errorf("groq api key not found")
		}
		c.apiKey = apiKey
	}

	return c, nil
}

type requestBody struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Tools       []tool    `json:"tools,omitempty"`
	ToolChoice  *string   `json:"tool_choice,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type responseBody struct {
	Choices []struct {
		Message struct {
			Role      string     `json:"role"`
			Content   string     `json:"content"`
			ToolCalls []toolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends the message sequence to the chat completions endpoint and
// normalizes the response. One result per call; requested tool calls are
// surfaced in the result, never executed here.
func (c *Client) Complete(ctx context.Context, messages []llms.Message, opts ...llms.PromptOption) (*llms.CompletionResult, error) {
	ctx, span := tracer.Start(ctx, "complete chat")
	defer span.End()

	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var toolChoice *string
	var tools []tool
	if len(options.Tools) > 0 {
		for _, llmsTool := range options.Tools {
			fn := toolFunction{}
			copier.Copy(&fn, &llmsTool)
			tools = append(tools, tool{Type: "function", Function: fn})
		}

		choice := string(llms.ToolChoiceAuto)
		if options.ToolChoice != "" {
			choice = string(options.ToolChoice)
		}
		toolChoice = &choice
	}

	reqBody := requestBody{
		Model:       c.model,
		Messages:    toWireMessages(options.Instructions, messages),
		Tools:       tools,
		ToolChoice:  toolChoice,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	span.SetAttributes(attribute.String("request.model", c.model))

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("non-OK HTTP status %s: %s", resp.Status, body)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var parsed responseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := parsed.Choices[0]
	result := &llms.CompletionResult{
		Content:      choice.Message.Content,
		Role:         llms.RoleAssistant,
		ToolCalls:    toToolCalls(choice.Message.ToolCalls),
		FinishReason: toFinishReason(choice.FinishReason),
	}
	if parsed.Usage != nil {
		result.Usage = &llms.Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		}
	}

	return result, nil
}
