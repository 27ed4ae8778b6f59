package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	ollamaDefaultBase = "http://ollama:11434"
	ollamaTimeout     = 60 * time.Second
)

// Ollama is the secondary remote provider: a self-hosted model served over
// Ollama's /api/generate endpoint. Calls are free.
type Ollama struct {
	apiBase string
	client  *http.Client
	logger  *slog.Logger
}

type OllamaConfig struct {
	APIBase string
	Logger  *slog.Logger
}

func NewOllama(cfg OllamaConfig) *Ollama {
	if cfg.APIBase == "" {
		cfg.APIBase = ollamaDefaultBase
	}
	return &Ollama{
		apiBase: cfg.APIBase,
		client:  &http.Client{Timeout: ollamaTimeout},
		logger:  cfg.Logger,
	}
}

func (o *Ollama) Name() Provider { return ProviderOllama }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response  string `json:"response"`
	EvalCount int    `json:"eval_count"`
}

// Complete sends a non-streaming generate request.
func (o *Ollama) Complete(ctx context.Context, model, prompt string) (*Result, error) {
	body, err := json.Marshal(ollamaRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiBase+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	return &Result{
		Content:    out.Response,
		ModelUsed:  model,
		Provider:   ProviderOllama,
		TokensUsed: out.EvalCount,
		CostUSD:    0,
		Success:    true,
	}, nil
}
