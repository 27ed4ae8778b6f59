// Package server exposes the HTTP surface: webhook ingestion, channel
// operations, health and analytics endpoints, the websocket echo hub, and
// the metrics exposition.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/domain"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/history"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/metrics"
)

// Dispatcher is the channel-manager surface the HTTP layer needs.
type Dispatcher interface {
	Process(ctx context.Context, channel string, raw []byte) domain.DispatchResult
	Status(ctx context.Context) map[string]domain.ConnectionStatus
	Describe() map[string]domain.ChannelInfo
	SendTest(ctx context.Context, channel, to, text string) (bool, error)
	Available() []string
}

// HistoryReader lists recorded tickets. Optional.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

type Server struct {
	addr       string
	dispatcher Dispatcher
	history    HistoryReader
	pipeline   *metrics.Pipeline
	cors       CORSConfig
	staticDir  string
	logger     *slog.Logger
	started    time.Time

	hub  *wsHub
	http *http.Server
}

type Config struct {
	Addr       string
	Dispatcher Dispatcher
	History    HistoryReader
	Pipeline   *metrics.Pipeline
	CORS       CORSConfig
	StaticDir  string
	Logger     *slog.Logger
}

func New(cfg Config) *Server {
	s := &Server{
		addr:       cfg.Addr,
		dispatcher: cfg.Dispatcher,
		history:    cfg.History,
		pipeline:   cfg.Pipeline,
		cors:       cfg.CORS,
		staticDir:  cfg.StaticDir,
		logger:     cfg.Logger,
		started:    time.Now(),
	}

	var gauge *metrics.Gauge
	if cfg.Pipeline != nil {
		gauge = cfg.Pipeline.WSConnections()
	}
	s.hub = newWSHub(cfg.Logger, gauge)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/webhooks/telegram", s.handleTelegramWebhook)
	mux.HandleFunc("POST /api/v1/webhooks/email", s.handleEmailWebhook)
	mux.HandleFunc("GET /api/v1/webhooks/channels/status", s.handleChannelStatus)
	mux.HandleFunc("POST /api/v1/webhooks/channels/test", s.handleChannelTest)
	mux.HandleFunc("POST /api/v1/webhooks/channels/{name}/send", s.handleChannelSend)

	mux.HandleFunc("GET /api/v1/health/status", s.handleHealthStatus)
	mux.HandleFunc("GET /api/v1/health/ready", s.handleHealthReady)
	mux.HandleFunc("GET /api/v1/analytics/dashboard", s.handleAnalyticsDashboard)
	mux.HandleFunc("POST /api/v1/tenants/", s.handleTenantCreate)
	mux.HandleFunc("GET /api/v1/tenants/{id}", s.handleTenantGet)
	mux.HandleFunc("GET /api/v1/conversations/", s.handleConversations)

	mux.HandleFunc("GET /ws", s.hub.handleUpgrade)

	if s.pipeline != nil {
		mux.HandleFunc("GET /metrics", s.pipeline.Collector().Handler())
	}

	if s.staticDir != "" {
		if _, err := os.Stat(s.staticDir); err == nil {
			mux.Handle("GET /ui/", http.StripPrefix("/ui/", http.FileServer(http.Dir(s.staticDir))))
		} else {
			s.logger.Warn("static dir not found, /ui/ disabled", "dir", s.staticDir)
		}
	}

	return loggingMiddleware(s.logger, corsMiddleware(s.cors, mux))
}

// Handler exposes the composed handler for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Hub exposes the websocket hub for broadcast use.
func (s *Server) Hub() *wsHub { return s.hub }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("http server starting", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}
