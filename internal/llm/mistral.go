package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	mistralDefaultBase = "https://api.mistral.ai/v1"
	mistralTimeout     = 30 * time.Second
	mistralTemperature = 0.1
)

// Mistral is the primary remote provider. The Mistral platform exposes an
// OpenAI-compatible chat-completions API, so the client is a go-openai client
// pointed at the Mistral base URL.
type Mistral struct {
	client *openai.Client
	logger *slog.Logger
}

type MistralConfig struct {
	APIKey  string
	APIBase string
	Logger  *slog.Logger
}

func NewMistral(cfg MistralConfig) *Mistral {
	if cfg.APIBase == "" {
		cfg.APIBase = mistralDefaultBase
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	cc.BaseURL = cfg.APIBase
	cc.HTTPClient = &http.Client{Timeout: mistralTimeout}
	return &Mistral{
		client: openai.NewClientWithConfig(cc),
		logger: cfg.Logger,
	}
}

func (m *Mistral) Name() Provider { return ProviderMistral }

// Complete sends a single-turn prompt and returns the model's reply.
func (m *Mistral) Complete(ctx context.Context, model, prompt string) (*Result, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: mistralTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("mistral chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("mistral returned no choices")
	}

	tokens := resp.Usage.TotalTokens
	return &Result{
		Content:    resp.Choices[0].Message.Content,
		ModelUsed:  model,
		Provider:   ProviderMistral,
		TokensUsed: tokens,
		CostUSD:    EstimateCost(model, tokens),
		Success:    true,
	}, nil
}
