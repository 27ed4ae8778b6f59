package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/domain"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/llm"
)

// failingClient always errors, pushing the gateway onto the local rule
// engine. The orchestrator pipeline is exercised end to end without any
// network dependency.
type failingClient struct{ name llm.Provider }

func (f *failingClient) Name() llm.Provider { return f.name }
func (f *failingClient) Complete(ctx context.Context, model, prompt string) (*llm.Result, error) {
	return nil, errors.New("remote unavailable")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func localOnlyGateway() *llm.Gateway {
	return llm.NewGateway(llm.GatewayConfig{
		Primary:        &failingClient{name: llm.ProviderMistral},
		Fallback:       &failingClient{name: llm.ProviderOllama},
		Classification: llm.ModelPair{Primary: "mistral-small", Fallback: "llama3.2:1b"},
		Generation:     llm.ModelPair{Primary: "mistral-large-latest", Fallback: "llama3.2:1b"},
		Logger:         testLogger(),
	})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestProcessMessage_SuccessEnvelope(t *testing.T) {
	o := New(Config{
		Gateway: localOnlyGateway(),
		Logger:  testLogger(),
		Now:     fixedClock(time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)),
	})

	res := o.ProcessMessage(context.Background(), &domain.Message{
		Content: "My payment failed and I am frustrated",
		Sender:  "42",
		Channel: "telegram",
	})

	if !res.Success {
		t.Fatalf("expected success envelope, got %+v", res)
	}
	if res.TicketID != "TICKET_20240315_103045" {
		t.Fatalf("unexpected ticket id %q", res.TicketID)
	}
	if res.Classification == nil || res.Classification.Category != domain.CategoryBilling {
		t.Fatalf("expected billing classification, got %+v", res.Classification)
	}
	if res.Response == "" || res.ModelUsed == "" {
		t.Fatalf("success envelope missing fields: %+v", res)
	}
	if !strings.Contains(res.Response, res.TicketID) {
		t.Fatalf("response should reference the ticket id: %q", res.Response)
	}
}

func TestProcessMessage_EmptyContentIsFailureEnvelope(t *testing.T) {
	o := New(Config{Gateway: localOnlyGateway(), Logger: testLogger()})

	res := o.ProcessMessage(context.Background(), &domain.Message{Content: ""})
	if res.Success {
		t.Fatal("expected failure envelope")
	}
	if res.Error == "" || res.FallbackResponse == "" {
		t.Fatalf("failure envelope must carry error and fallback response: %+v", res)
	}
}

func TestProcessMessage_NilMessageNeverPanics(t *testing.T) {
	o := New(Config{Gateway: localOnlyGateway(), Logger: testLogger()})

	res := o.ProcessMessage(context.Background(), nil)
	if res.Success {
		t.Fatal("expected failure envelope for nil message")
	}
}

func TestProcessMessage_TicketIDsSortableAndSecondGranular(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	o := New(Config{Gateway: localOnlyGateway(), Logger: testLogger(), Now: fixedClock(now)})

	a := o.ProcessMessage(context.Background(), &domain.Message{Content: "first"})
	b := o.ProcessMessage(context.Background(), &domain.Message{Content: "second"})

	// Same second, same ticket id: a documented limitation.
	if a.TicketID != b.TicketID {
		t.Fatalf("same-second tickets should collide: %q vs %q", a.TicketID, b.TicketID)
	}

	later := New(Config{Gateway: localOnlyGateway(), Logger: testLogger(), Now: fixedClock(now.Add(time.Second))})
	c := later.ProcessMessage(context.Background(), &domain.Message{Content: "third"})
	if !(a.TicketID < c.TicketID) {
		t.Fatalf("ticket ids must sort by creation time: %q !< %q", a.TicketID, c.TicketID)
	}
}

func TestProcessMessage_ConcurrentCallsShareNoState(t *testing.T) {
	o := New(Config{Gateway: localOnlyGateway(), Logger: testLogger()})

	var wg sync.WaitGroup
	results := make([]*domain.ProcessingResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = o.ProcessMessage(context.Background(), &domain.Message{
				Content: "How do I reset my password?",
			})
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if res == nil || !res.Success {
			t.Fatalf("result %d: expected success, got %+v", i, res)
		}
		if res.Classification.Category != domain.CategoryTechnical {
			t.Fatalf("result %d: expected technical, got %+v", i, res.Classification)
		}
	}
}
