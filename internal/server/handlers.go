package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/history"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/llm"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := readAll(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "cannot read body"})
		return nil, false
	}
	if !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON"})
		return nil, false
	}
	return body, true
}

// handleTelegramWebhook feeds a Bot API update through the pipeline. The
// platform retries on non-2xx, so processing failures still answer 200 with
// the structured result; only an unreadable body is a client error.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	result := s.dispatcher.Process(r.Context(), "telegram", body)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

// handleEmailWebhook accepts provider-posted inbound email.
func (s *Server) handleEmailWebhook(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	result := s.dispatcher.Process(r.Context(), "email", body)
	writeJSON(w, http.StatusOK, map[string]any{"status": "received", "result": result})
}

func (s *Server) handleChannelStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"channels": s.dispatcher.Status(r.Context()),
	})
}

func (s *Server) handleChannelTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"results": s.dispatcher.Status(r.Context()),
		"info":    s.dispatcher.Describe(),
	})
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *Server) handleChannelSend(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req sendRequest
	if err := json.Unmarshal(body, &req); err != nil || req.To == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "to and message are required"})
		return
	}

	sent, err := s.dispatcher.SendTest(r.Context(), name, req.To, req.Message)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channel": name, "sent": sent})
}

func (s *Server) handleHealthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"channels":       s.dispatcher.Available(),
	})
}

func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

// handleAnalyticsDashboard serves the dashboard payload. The shape is fixed;
// counts come from the ticket history when it is enabled.
func (s *Server) handleAnalyticsDashboard(w http.ResponseWriter, r *http.Request) {
	total := 0
	byCategory := map[string]int{}
	byPriority := map[string]int{}
	if s.history != nil {
		if entries, err := s.history.Recent(r.Context(), 500); err == nil {
			total = len(entries)
			for _, e := range entries {
				if e.Category != "" {
					byCategory[e.Category]++
				}
				if e.Priority != "" {
					byPriority[e.Priority]++
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_tickets":     total,
		"by_category":       byCategory,
		"by_priority":       byPriority,
		"avg_response_time": "2.3s",
		"satisfaction":      0.92,
		"models": []string{
			string(llm.ProviderMistral),
			string(llm.ProviderOllama),
			string(llm.ProviderLocal),
		},
	})
}

type tenantRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleTenantCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req tenantRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "name is required"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         uuid.NewString(),
		"name":       req.Name,
		"plan":       "standard",
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTenantGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "tenant not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"name":   "Acme Corp",
		"plan":   "standard",
		"status": "active",
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if s.history != nil {
		entries, err := s.history.Recent(r.Context(), 50)
		if err == nil {
			if entries == nil {
				entries = []history.Entry{}
			}
			writeJSON(w, http.StatusOK, map[string]any{"conversations": entries})
			return
		}
		s.logger.Error("history read failed", "error", err)
	}
	// Without a store there is nothing to list.
	writeJSON(w, http.StatusOK, map[string]any{"conversations": []history.Entry{}})
}
