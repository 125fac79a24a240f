package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient is the OpenAI LLM client.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	client := openai.NewClient(apiKey)

	return &OpenAIClient{
		client: client,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Models returns available models.
func (c *OpenAIClient) Models() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
	}
}

// NewExchange starts a chat-completions exchange. The API is stateless, so
// the exchange keeps the transcript and replays it on each round.
func (c *OpenAIClient) NewExchange(req *ExchangeRequest) Exchange {
	model := req.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	var transcript []openai.ChatCompletionMessage
	if req.System != "" {
		transcript = append(transcript, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	return &openAIExchange{
		client:      c.client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(req.Temperature),
		tools:       openAITools(req.Tools),
		transcript:  transcript,
	}
}

type openAIExchange struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	tools       []openai.Tool
	transcript  []openai.ChatCompletionMessage
}

func openAITools(tools []Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schemaJSON(t.Parameters),
			},
		})
	}
	return out
}

// Send appends items to the transcript and runs one completion.
func (e *openAIExchange) Send(ctx context.Context, items []Item) (*Response, error) {
	start := time.Now()

	for _, item := range items {
		switch {
		case item.Message != nil:
			e.transcript = append(e.transcript, openai.ChatCompletionMessage{
				Role:    item.Message.Role,
				Content: item.Message.Content,
			})
		case item.Output != nil:
			e.transcript = append(e.transcript, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    item.Output.Output,
				ToolCallID: item.Output.CallID,
			})
		}
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Messages:    e.transcript,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
		Tools:       e.tools,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	choice := resp.Choices[0]
	e.transcript = append(e.transcript, choice.Message)

	out := &Response{
		Content:    choice.Message.Content,
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: string(choice.FinishReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}
