package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/domain"
)

func classify(t *testing.T, text string) domain.Classification {
	t.Helper()
	engine := NewRuleEngine()
	prompt := fmt.Sprintf(classificationPrompt, text)
	res := engine.Classify(prompt)
	if !res.Success {
		t.Fatalf("rule classification must always succeed, got error %q", res.Error)
	}
	var c domain.Classification
	if err := json.Unmarshal([]byte(res.Content), &c); err != nil {
		t.Fatalf("classification content is not JSON: %v (%q)", err, res.Content)
	}
	return c
}

func TestRuleClassify_PasswordResetIsTechnical(t *testing.T) {
	c := classify(t, "How do I reset my password?")
	if c.Category != domain.CategoryTechnical {
		t.Fatalf("expected category technical, got %q", c.Category)
	}
}

func TestRuleClassify_PasswordResetOutranksBilling(t *testing.T) {
	// "refund" is a billing keyword, but the reset+password compound rule
	// must win.
	c := classify(t, "I want a refund, also how do I reset my password?")
	if c.Category != domain.CategoryTechnical {
		t.Fatalf("expected category technical, got %q", c.Category)
	}
}

func TestRuleClassify_UrgentIsHighPriority(t *testing.T) {
	c := classify(t, "This is urgent, please respond")
	if c.Priority != domain.PriorityHigh {
		t.Fatalf("expected priority high, got %q", c.Priority)
	}
}

func TestRuleClassify_BillingCategory(t *testing.T) {
	c := classify(t, "I was charged twice on my invoice")
	if c.Category != domain.CategoryBilling {
		t.Fatalf("expected category billing, got %q", c.Category)
	}
}

func TestRuleClassify_Sentiment(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"I am so frustrated with this terrible service", domain.SentimentNegative},
		{"Thank you, the product is great", domain.SentimentPositive},
		{"Where is my order", domain.SentimentNeutral},
	}
	for _, tt := range tests {
		if c := classify(t, tt.text); c.Sentiment != tt.want {
			t.Fatalf("text %q: expected sentiment %q, got %q", tt.text, tt.want, c.Sentiment)
		}
	}
}

func TestRuleClassify_Defaults(t *testing.T) {
	c := classify(t, "hello there")
	if c.Priority != domain.PriorityMedium || c.Category != domain.CategoryGeneral || c.Sentiment != domain.SentimentNeutral {
		t.Fatalf("expected medium/general/neutral defaults, got %+v", c)
	}
}

func TestRuleClassify_Deterministic(t *testing.T) {
	first := classify(t, "How do I reset my password?")
	for i := 0; i < 5; i++ {
		if got := classify(t, "How do I reset my password?"); got != first {
			t.Fatalf("classification not deterministic: %+v vs %+v", got, first)
		}
	}
}

func genPrompt(content, priority, category, ticket string) string {
	return fmt.Sprintf("Customer said: %s\nPriority: %s\nCategory: %s\n\nGenerate a helpful response acknowledging their issue and providing ticket number %s.", content, priority, category, ticket)
}

func TestRuleGenerate_EmbedsTicketID(t *testing.T) {
	engine := NewRuleEngine()
	res := engine.Generate(genPrompt("My app keeps crashing", "high", "technical", "TICKET_20240101_120000"))
	if !res.Success {
		t.Fatalf("rule generation must always succeed")
	}
	if !strings.Contains(res.Content, "TICKET_20240101_120000") {
		t.Fatalf("response does not reference the ticket: %q", res.Content)
	}
}

func TestRuleGenerate_CategoryTemplates(t *testing.T) {
	engine := NewRuleEngine()
	tests := []struct {
		category, priority, fragment string
	}{
		{"billing", "high", "billing specialist"},
		{"billing", "medium", "billing team"},
		{"technical", "high", "technical team"},
		{"technical", "low", "technical support team"},
		{"general", "medium", "track your inquiry"},
	}
	for _, tt := range tests {
		res := engine.Generate(genPrompt("something happened", tt.priority, tt.category, "TICKET_X"))
		if !strings.Contains(res.Content, tt.fragment) {
			t.Fatalf("category %s priority %s: expected %q in %q", tt.category, tt.priority, tt.fragment, res.Content)
		}
	}
}

func TestRuleGenerate_NegativeHighPriorityApology(t *testing.T) {
	engine := NewRuleEngine()
	res := engine.Generate(genPrompt("I am angry, this is the worst", "high", "general", "TICKET_X"))
	if !strings.Contains(res.Content, "sincerely apologize") {
		t.Fatalf("expected apology template, got %q", res.Content)
	}
}

func TestRuleGenerate_MissingTicketUsesFallbackToken(t *testing.T) {
	engine := NewRuleEngine()
	res := engine.Generate("Customer said: hello\nPriority: medium\nCategory: general")
	if !strings.Contains(res.Content, fallbackTicket) {
		t.Fatalf("expected %s in %q", fallbackTicket, res.Content)
	}
}

func TestRespond_UnknownPurposeFails(t *testing.T) {
	engine := NewRuleEngine()
	res := engine.Respond(Purpose("embedding"), "whatever", "remote exploded")
	if res.Success {
		t.Fatal("unknown purpose must yield success=false")
	}
	if res.Error != "remote exploded" {
		t.Fatalf("expected remote error to be retained, got %q", res.Error)
	}
}

func TestEstimateCost(t *testing.T) {
	if got := EstimateCost("mistral-small", 1000); got != 0.0002 {
		t.Fatalf("mistral-small: expected 0.0002, got %v", got)
	}
	if got := EstimateCost("unknown-model", 1000); got != defaultRate {
		t.Fatalf("unknown model: expected default rate, got %v", got)
	}
	if got := EstimateCost("mistral-large", 0); got != 0 {
		t.Fatalf("zero tokens: expected 0, got %v", got)
	}
}
