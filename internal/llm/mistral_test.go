package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMistralComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"priority\":\"high\"}"}}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 10, "total_tokens": 40}
		}`))
	}))
	defer ts.Close()

	m := NewMistral(MistralConfig{APIKey: "test-key", APIBase: ts.URL, Logger: testLogger()})
	res, err := m.Complete(context.Background(), "mistral-small", "classify this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Content != `{"priority":"high"}` {
		t.Errorf("content = %q", res.Content)
	}
	if res.TokensUsed != 40 {
		t.Errorf("tokens = %d, want 40", res.TokensUsed)
	}
	if want := EstimateCost("mistral-small", 40); res.CostUSD != want {
		t.Errorf("cost = %v, want %v", res.CostUSD, want)
	}
}

func TestMistralComplete_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "cmpl-2", "object": "chat.completion", "choices": []}`))
	}))
	defer ts.Close()

	m := NewMistral(MistralConfig{APIKey: "test-key", APIBase: ts.URL, Logger: testLogger()})
	if _, err := m.Complete(context.Background(), "mistral-small", "hi"); err == nil {
		t.Fatalf("want error on empty choices")
	}
}
