package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// RemoteClient is one remote tier of the cascade.
type RemoteClient interface {
	Name() Provider
	Complete(ctx context.Context, model, prompt string) (*Result, error)
}

// ModelPair is a statically configured primary and fallback model for one
// purpose.
type ModelPair struct {
	Primary  string
	Fallback string
}

const classificationPrompt = `Classify this support message and return JSON:
%s

Return: {"priority": "high|medium|low", "category": "billing|technical|general", "sentiment": "positive|neutral|negative"}`

// Gateway issues classification and generation requests through the fallback
// cascade: primary remote, then fallback remote, then the local rule engine.
// Remote failures are logged and swallowed; Classify and GenerateResponse
// never return an error.
type Gateway struct {
	primary  RemoteClient
	fallback RemoteClient
	models   map[Purpose]ModelPair
	rules    *RuleEngine
	logger   *slog.Logger
}

type GatewayConfig struct {
	Primary        RemoteClient
	Fallback       RemoteClient
	Classification ModelPair
	Generation     ModelPair
	Logger         *slog.Logger
}

func NewGateway(cfg GatewayConfig) *Gateway {
	return &Gateway{
		primary:  cfg.Primary,
		fallback: cfg.Fallback,
		models: map[Purpose]ModelPair{
			PurposeClassification: cfg.Classification,
			PurposeGeneration:     cfg.Generation,
		},
		rules:  NewRuleEngine(),
		logger: cfg.Logger,
	}
}

// Classify wraps the customer text in the classification prompt and runs the
// cascade. The Result content is a JSON classification object.
func (g *Gateway) Classify(ctx context.Context, text string) *Result {
	prompt := fmt.Sprintf(classificationPrompt, text)
	return g.call(ctx, PurposeClassification, prompt)
}

// GenerateResponse runs the cascade over an already-built generation prompt.
func (g *Gateway) GenerateResponse(ctx context.Context, contextText string) *Result {
	return g.call(ctx, PurposeGeneration, contextText)
}

func (g *Gateway) call(ctx context.Context, purpose Purpose, prompt string) *Result {
	pair := g.models[purpose]

	if g.primary != nil {
		res, err := g.primary.Complete(ctx, pair.Primary, prompt)
		if err == nil {
			return res
		}
		g.logger.Warn("primary model failed",
			"purpose", string(purpose),
			"provider", string(g.primary.Name()),
			"model", pair.Primary,
			"error", err,
		)
	}

	if g.fallback != nil {
		res, err := g.fallback.Complete(ctx, pair.Fallback, prompt)
		if err == nil {
			g.logger.Info("served by fallback model",
				"purpose", string(purpose),
				"provider", string(g.fallback.Name()),
				"model", pair.Fallback,
			)
			return res
		}
		g.logger.Error("fallback model failed",
			"purpose", string(purpose),
			"provider", string(g.fallback.Name()),
			"model", pair.Fallback,
			"error", err,
		)
		return g.rules.Respond(purpose, prompt, err.Error())
	}

	return g.rules.Respond(purpose, prompt, "no remote provider configured")
}
