package domain

import "time"

// Message is the channel-agnostic representation of an inbound customer
// message. It is produced by a channel adapter's Parse and consumed by the
// orchestrator; it lives for a single request and is never persisted.
type Message struct {
	Content   string            `json:"content"`
	Sender    string            `json:"sender"`
	Channel   string            `json:"channel"`
	MessageID string            `json:"message_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
}

// Classification is the (priority, category, sentiment) triple assigned to an
// inbound message.
type Classification struct {
	Priority  string `json:"priority"`
	Category  string `json:"category"`
	Sentiment string `json:"sentiment"`
}

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	CategoryBilling   = "billing"
	CategoryTechnical = "technical"
	CategoryGeneral   = "general"

	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// DefaultClassification is substituted when a remote classification response
// cannot be parsed.
func DefaultClassification() Classification {
	return Classification{
		Priority:  PriorityMedium,
		Category:  CategoryGeneral,
		Sentiment: SentimentNeutral,
	}
}

// ProcessingResult is the orchestrator's output envelope. Exactly one of the
// two shapes is populated: on success TicketID/Classification/Response/
// ModelUsed, on failure Error/FallbackResponse. The orchestrator never
// returns anything else and never propagates an error.
type ProcessingResult struct {
	Success          bool            `json:"success"`
	TicketID         string          `json:"ticket_id,omitempty"`
	Classification   *Classification `json:"classification,omitempty"`
	Response         string          `json:"response,omitempty"`
	ModelUsed        string          `json:"model_used,omitempty"`
	Error            string          `json:"error,omitempty"`
	FallbackResponse string          `json:"fallback_response,omitempty"`
}

// DispatchResult is the channel manager's output. When the channel lookup or
// payload parse fails, Processed is false and Err carries the reason; the
// orchestrator is never invoked. Otherwise Result holds the orchestrator
// envelope and Sent reports whether the reply was delivered.
type DispatchResult struct {
	Channel   string            `json:"channel"`
	Processed bool              `json:"processed"`
	Sent      bool              `json:"sent,omitempty"`
	Err       string            `json:"error,omitempty"`
	Result    *ProcessingResult `json:"result,omitempty"`
}
