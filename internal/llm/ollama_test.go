package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama3.2:1b" || req.Stream {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "generated text", EvalCount: 17})
	}))
	defer ts.Close()

	o := NewOllama(OllamaConfig{APIBase: ts.URL, Logger: testLogger()})
	res, err := o.Complete(context.Background(), "llama3.2:1b", "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Content != "generated text" || res.TokensUsed != 17 {
		t.Errorf("result = %+v", res)
	}
	if res.Provider != ProviderOllama || res.CostUSD != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestOllamaComplete_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	o := NewOllama(OllamaConfig{APIBase: ts.URL, Logger: testLogger()})
	if _, err := o.Complete(context.Background(), "missing", "hello"); err == nil {
		t.Fatalf("want error on non-200 response")
	}
}

func TestOllamaComplete_Unreachable(t *testing.T) {
	o := NewOllama(OllamaConfig{APIBase: "http://127.0.0.1:1", Logger: testLogger()})
	if _, err := o.Complete(context.Background(), "llama3.2:1b", "hello"); err == nil {
		t.Fatalf("want error when server is unreachable")
	}
}
