package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient is the Anthropic LLM client.
type AnthropicClient struct {
	client *anthropic.Client
	apiKey string
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AnthropicClient{
		client: client,
		apiKey: apiKey,
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Models returns available models.
func (c *AnthropicClient) Models() []string {
	return []string{
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
	}
}

// NewExchange starts a messages exchange. The transcript, including the
// assistant tool_use blocks, is kept on the exchange between rounds.
func (c *AnthropicClient) NewExchange(req *ExchangeRequest) Exchange {
	model := req.Model
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	tools := make([]anthropic.ToolParam, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, anthropic.ToolParam{
			Name:        anthropic.F(t.Name),
			Description: anthropic.F(t.Description),
			InputSchema: anthropic.F[interface{}](schemaJSON(t.Parameters)),
		})
	}

	return &anthropicExchange{
		client:    c.client,
		model:     model,
		maxTokens: maxTokens,
		system:    req.System,
		tools:     tools,
	}
}

type anthropicExchange struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	system    string
	tools     []anthropic.ToolParam
	messages  []anthropic.MessageParam
}

// Send appends items and runs one Messages call. Consecutive user entries
// (such as several tool results) are combined by the API into one turn.
func (e *anthropicExchange) Send(ctx context.Context, items []Item) (*Response, error) {
	start := time.Now()

	for _, item := range items {
		switch {
		case item.Message != nil && item.Message.Role == RoleAssistant:
			// The API requires the transcript to open with a user turn.
			if len(e.messages) == 0 {
				continue
			}
			e.messages = append(e.messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(item.Message.Content)))
		case item.Message != nil:
			e.messages = append(e.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(item.Message.Content)))
		case item.Output != nil:
			e.messages = append(e.messages, anthropic.NewUserMessage(anthropic.NewToolResultBlock(item.Output.CallID, item.Output.Output, false)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(e.model),
		MaxTokens: anthropic.F(int64(e.maxTokens)),
		Messages:  anthropic.F(e.messages),
		Tools:     anthropic.F(e.tools),
	}
	if e.system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(e.system)})
	}

	resp, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}
	e.messages = append(e.messages, resp.ToParam())

	out := &Response{
		Model:      resp.Model,
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.ContentBlockTypeText:
			out.Content += block.Text
		case anthropic.ContentBlockTypeToolUse:
			args, err := json.Marshal(block.Input)
			if err != nil {
				args = []byte("{}")
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(args),
			})
		}
	}
	return out, nil
}
