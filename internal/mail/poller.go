package mail

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// FetchFunc returns unseen messages received since a point in time.
type FetchFunc func(since time.Time) ([]Inbound, error)

// ProcessFunc receives one fetched email as the raw email-channel payload. It
// is the same path a webhook delivery takes.
type ProcessFunc func(ctx context.Context, raw []byte)

// Poller periodically fetches unread mail and feeds each message through the
// shared processing path. A failed iteration is logged and the loop carries
// on after the usual sleep; only context cancellation stops it.
type Poller struct {
	fetch    FetchFunc
	process  ProcessFunc
	interval time.Duration
	logger   *slog.Logger

	lastCheck time.Time
}

type PollerConfig struct {
	Fetch    FetchFunc
	Process  ProcessFunc
	Interval time.Duration
	Logger   *slog.Logger
}

func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Poller{
		fetch:    cfg.Fetch,
		process:  cfg.Process,
		interval: cfg.Interval,
		logger:   cfg.Logger,
		// Start an hour back so mail that arrived while the process was
		// down is still picked up.
		lastCheck: time.Now().Add(-time.Hour),
	}
}

// Run blocks until ctx is cancelled. The first fetch happens right away; the
// interval only spaces out subsequent iterations.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("email polling started", "interval", p.interval)

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email polling stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	inbounds, err := p.fetch(p.lastCheck)
	if err != nil {
		p.logger.Error("email fetch failed", "error", err)
		return
	}
	p.lastCheck = time.Now()

	for _, in := range inbounds {
		raw, err := json.Marshal(in)
		if err != nil {
			p.logger.Error("cannot encode fetched email", "error", err)
			continue
		}
		p.process(ctx, raw)
	}
}
