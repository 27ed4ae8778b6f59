package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/domain"
)

// RuleEngine is the deterministic responder behind the two remote tiers. It
// is a keyword decision table, not an error path: it always succeeds, costs
// nothing, and cannot itself fail.
type RuleEngine struct{}

func NewRuleEngine() *RuleEngine { return &RuleEngine{} }

// Keyword sets, matched against the lower-cased customer text in strict
// order. The reset+password compound rule outranks every category set.
var (
	urgentKeywords = []string{
		"urgent", "emergency", "critical", "asap", "immediately", "broken",
		"not working", "failed", "error", "charged twice", "can't login",
	}
	highKeywords = []string{
		"problem", "issue", "help", "support", "stuck", "can't", "unable",
		"doesn't work", "crash", "slow",
	}
	lowKeywords = []string{
		"question", "how", "what", "when", "info", "reset password", "business hours",
	}

	billingKeywords = []string{
		"payment", "bill", "charge", "credit", "invoice", "subscription",
		"refund", "money", "billing", "charged",
	}
	technicalKeywords = []string{
		"login", "password", "app", "website", "technical", "bug", "error",
		"crash", "slow", "reset", "access", "account", "reset password",
	}

	negativeKeywords = []string{
		"frustrated", "angry", "terrible", "awful", "hate", "worst",
		"disappointed", "upset",
	}
	positiveKeywords = []string{
		"thank", "great", "excellent", "love", "amazing", "wonderful", "fantastic",
	}
)

const (
	fallbackModel      = "intelligent_fallback"
	basicFallbackModel = "basic_fallback"
	fallbackTicket     = "TICKET_FALLBACK"
)

var ticketPattern = regexp.MustCompile(`TICKET_\w+`)

// Respond dispatches on purpose. An unknown purpose yields the only
// Success=false result the engine can produce, carrying the remote error for
// diagnostics.
func (e *RuleEngine) Respond(purpose Purpose, prompt, remoteErr string) *Result {
	switch purpose {
	case PurposeClassification:
		return e.Classify(prompt)
	case PurposeGeneration:
		return e.Generate(prompt)
	default:
		return &Result{
			Content:   "I'm here to help! Please let me know how I can assist you today.",
			ModelUsed: basicFallbackModel,
			Provider:  ProviderLocal,
			Success:   false,
			Error:     remoteErr,
		}
	}
}

// Classify extracts the literal customer text out of the classification
// prompt template and runs the keyword tables over it. Always succeeds with a
// synthesized JSON classification.
func (e *RuleEngine) Classify(prompt string) *Result {
	text := extractCustomerText(prompt)
	if text == "" {
		text = prompt
	}
	lower := strings.ToLower(text)

	c := domain.Classification{
		Priority:  domain.PriorityMedium,
		Category:  domain.CategoryGeneral,
		Sentiment: domain.SentimentNeutral,
	}

	switch {
	case containsAny(lower, urgentKeywords), containsAny(lower, highKeywords):
		c.Priority = domain.PriorityHigh
	case containsAny(lower, lowKeywords):
		c.Priority = domain.PriorityLow
	}

	switch {
	case strings.Contains(lower, "reset") && strings.Contains(lower, "password"):
		// Password reset outranks any billing keyword also present.
		c.Category = domain.CategoryTechnical
	case containsAny(lower, billingKeywords):
		c.Category = domain.CategoryBilling
	case containsAny(lower, technicalKeywords):
		c.Category = domain.CategoryTechnical
	}

	c.Sentiment = detectSentiment(lower, nil)

	payload, _ := json.Marshal(c)
	return &Result{
		Content:   string(payload),
		ModelUsed: fallbackModel,
		Provider:  ProviderLocal,
		Success:   true,
	}
}

// Generate parses the templated generation prompt for the customer text, the
// classification fields, and the ticket token, then selects a canned response
// keyed by (category, priority, sentiment).
func (e *RuleEngine) Generate(prompt string) *Result {
	customer := ""
	priority := domain.PriorityMedium
	category := domain.CategoryGeneral
	ticket := fallbackTicket

	for _, line := range strings.Split(prompt, "\n") {
		switch {
		case strings.Contains(line, "Customer said:"):
			customer = strings.TrimSpace(strings.Replace(line, "Customer said:", "", 1))
		case strings.Contains(line, "Priority:"):
			priority = strings.TrimSpace(strings.Replace(line, "Priority:", "", 1))
		case strings.Contains(line, "Category:"):
			category = strings.TrimSpace(strings.Replace(line, "Category:", "", 1))
		case strings.Contains(line, "ticket number"):
			if m := ticketPattern.FindString(line); m != "" {
				ticket = m
			}
		}
	}

	sentiment := domain.SentimentNeutral
	if customer != "" {
		// The generation prompt carries no sentiment field, so re-derive it.
		sentiment = detectSentiment(strings.ToLower(customer), []string{"failed", "broken"})
	}

	return &Result{
		Content:   cannedResponse(category, priority, sentiment, ticket),
		ModelUsed: fallbackModel,
		Provider:  ProviderLocal,
		Success:   true,
	}
}

func cannedResponse(category, priority, sentiment, ticket string) string {
	switch category {
	case domain.CategoryBilling:
		if priority == domain.PriorityHigh {
			return fmt.Sprintf("I understand you're experiencing an urgent billing issue. I've escalated your concern and created ticket %s. Our billing specialist will contact you within 1 hour to resolve this matter.", ticket)
		}
		return fmt.Sprintf("Thank you for contacting us about your billing inquiry. I've created ticket %s and our billing team will review your account and respond within 24 hours.", ticket)

	case domain.CategoryTechnical:
		if priority == domain.PriorityHigh {
			return fmt.Sprintf("I see you're facing a technical issue that needs immediate attention. I've created priority ticket %s and our technical team will assist you within 30 minutes.", ticket)
		}
		return fmt.Sprintf("Thank you for reporting this technical issue. I've logged ticket %s and our technical support team will investigate and get back to you soon.", ticket)

	default:
		switch {
		case priority == domain.PriorityHigh && sentiment == domain.SentimentNegative:
			return fmt.Sprintf("I sincerely apologize for the frustration you're experiencing. I've created high-priority ticket %s and our senior support team will personally address your concerns immediately.", ticket)
		case sentiment == domain.SentimentPositive:
			return fmt.Sprintf("Thank you so much for your wonderful feedback! I've created ticket %s to ensure your positive experience is shared with our team. We truly appreciate customers like you!", ticket)
		default:
			return fmt.Sprintf("Thank you for reaching out to us. I've created ticket %s to track your inquiry. Our support team will review your message and respond appropriately.", ticket)
		}
	}
}

// extractCustomerText pulls the raw message line out of the classification
// prompt: the first non-empty line that is neither template scaffolding nor
// the JSON schema hint.
func extractCustomerText(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "Classify") || strings.HasPrefix(trimmed, "Return:") {
			continue
		}
		if strings.Contains(trimmed, "{") {
			continue
		}
		return trimmed
	}
	return ""
}

func detectSentiment(lower string, extraNegative []string) string {
	if containsAny(lower, negativeKeywords) || containsAny(lower, extraNegative) {
		return domain.SentimentNegative
	}
	if containsAny(lower, positiveKeywords) {
		return domain.SentimentPositive
	}
	return domain.SentimentNeutral
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
