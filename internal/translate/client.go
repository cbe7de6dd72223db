package translate

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

const (
	chatTemperature = 0.3
	chatMaxTokens   = 500
)

// Completion is a chat model's answer together with its token accounting.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatClient produces a completion for a prompt.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// OpenAIChat calls the OpenAI chat completion API behind a circuit breaker.
type OpenAIChat struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
}

func NewOpenAIChat(apiKey, model string) *OpenAIChat {
	return &OpenAIChat{
		client: openai.NewClient(apiKey),
		model:  model,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openai-chat",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (c *OpenAIChat) Complete(ctx context.Context, prompt string) (Completion, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: chatTemperature,
			MaxTokens:   chatMaxTokens,
		})
	})
	if err != nil {
		return Completion{}, classify(err)
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return Completion{}, classify(errors.New("no completion choices returned"))
	}
	return Completion{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}
