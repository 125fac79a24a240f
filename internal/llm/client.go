// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"encoding/json"
)

// Roles used in chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a backend operation the model may call.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON schema object.
	Parameters map[string]any
}

// ToolCall is a model request to run a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolOutput is the serialised result of a tool call.
type ToolOutput struct {
	CallID string
	Output string
}

// Item is one input entry of an exchange round: a chat message or a tool output.
type Item struct {
	Message *ChatMessage
	Output  *ToolOutput
}

// MessageItem wraps a chat message.
func MessageItem(role, content string) Item {
	return Item{Message: &ChatMessage{Role: role, Content: content}}
}

// OutputItem wraps a tool output.
func OutputItem(callID string, output string) Item {
	return Item{Output: &ToolOutput{CallID: callID, Output: output}}
}

// ExchangeRequest configures a multi-round exchange.
type ExchangeRequest struct {
	Model       string
	System      string
	Tools       []Tool
	MaxTokens   int
	Temperature float64
}

// Response is the result of one exchange round. Either ToolCalls is non-empty
// or Content carries the answer.
type Response struct {
	Content    string
	ToolCalls  []ToolCall
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Exchange is a multi-round conversation with the model. It carries the
// model-side conversation state so each Send only supplies new items.
type Exchange interface {
	Send(ctx context.Context, items []Item) (*Response, error)
}

// Client is the interface for LLM providers.
type Client interface {
	// NewExchange starts a tool-calling exchange.
	NewExchange(req *ExchangeRequest) Exchange

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewOpenAIClient(apiKey)
	}
}

// schemaJSON renders a tool parameter schema, defaulting to an empty object.
func schemaJSON(params map[string]any) json.RawMessage {
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return b
}
