// Package orchestrator drives the classify → ticket → generate pipeline for a
// single normalized message.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/domain"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/llm"
)

const fallbackResponse = "Thank you for contacting support. We've received your message and will respond shortly."

const generationPrompt = `Customer said: %s
Priority: %s
Category: %s

Generate a helpful response acknowledging their issue and providing ticket number %s.`

// Orchestrator classifies an inbound message, mints a ticket id, and asks the
// gateway for a reply referencing both. Any failure collapses into the
// failure envelope; ProcessMessage never returns an error and never panics
// past its own boundary.
type Orchestrator struct {
	gateway *llm.Gateway
	logger  *slog.Logger
	now     func() time.Time
}

type Config struct {
	Gateway *llm.Gateway
	Logger  *slog.Logger
	// Now overrides the clock; tests use it to pin ticket ids.
	Now func() time.Time
}

func New(cfg Config) *Orchestrator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		gateway: cfg.Gateway,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
}

// ProcessMessage runs the pipeline end to end. The returned envelope always
// has either the full success shape or Error+FallbackResponse.
func (o *Orchestrator) ProcessMessage(ctx context.Context, msg *domain.Message) (result *domain.ProcessingResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestration panic", "recover", r)
			result = o.failure(fmt.Sprintf("panic: %v", r))
		}
	}()

	if msg == nil || msg.Content == "" {
		return o.failure("empty message content")
	}

	classified := o.gateway.Classify(ctx, msg.Content)

	var classification domain.Classification
	if err := json.Unmarshal([]byte(classified.Content), &classification); err != nil || classification.Priority == "" {
		// Remote models occasionally wrap the JSON in prose; rather than
		// scraping it back out, degrade to the neutral default.
		classification = domain.DefaultClassification()
	}

	// Ticket ids are second-granularity timestamps: lexically sortable by
	// creation time, and colliding under same-second concurrent load. The
	// collision is a documented limitation, not something to paper over.
	ticketID := "TICKET_" + o.now().UTC().Format("20060102_150405")

	prompt := fmt.Sprintf(generationPrompt, msg.Content, classification.Priority, classification.Category, ticketID)
	generated := o.gateway.GenerateResponse(ctx, prompt)
	if !generated.Success {
		o.logger.Error("response generation failed", "ticket_id", ticketID, "error", generated.Error)
		return o.failure(generated.Error)
	}

	o.logger.Info("message processed",
		"ticket_id", ticketID,
		"channel", msg.Channel,
		"priority", classification.Priority,
		"category", classification.Category,
		"model", generated.ModelUsed,
	)

	return &domain.ProcessingResult{
		Success:        true,
		TicketID:       ticketID,
		Classification: &classification,
		Response:       generated.Content,
		ModelUsed:      generated.ModelUsed,
	}
}

func (o *Orchestrator) failure(errMsg string) *domain.ProcessingResult {
	return &domain.ProcessingResult{
		Success:          false,
		Error:            errMsg,
		FallbackResponse: fallbackResponse,
	}
}
