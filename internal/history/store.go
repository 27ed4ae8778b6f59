// Package history persists processed tickets to SQLite. Recording is
// observational: the pipeline works identically with history disabled, and a
// write failure is logged, never surfaced.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/domain"
)

// Entry is one recorded ticket.
type Entry struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Channel   string    `json:"channel"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Priority  string    `json:"priority,omitempty"`
	Category  string    `json:"category,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	Response  string    `json:"response,omitempty"`
	ModelUsed string    `json:"model_used,omitempty"`
	Success   bool      `json:"success"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed ticket log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id          TEXT PRIMARY KEY,
		ticket_id   TEXT,
		channel     TEXT NOT NULL,
		sender      TEXT,
		content     TEXT,
		priority    TEXT,
		category    TEXT,
		sentiment   TEXT,
		response    TEXT,
		model_used  TEXT,
		success     INTEGER NOT NULL DEFAULT 0,
		sent        INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_created ON tickets(created_at);
	CREATE INDEX IF NOT EXISTS idx_tickets_channel ON tickets(channel, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record writes one processed ticket. Errors are logged and swallowed so a
// broken disk never affects message handling.
func (s *Store) Record(ctx context.Context, msg *domain.Message, result *domain.ProcessingResult, sent bool) {
	var priority, category, sentiment string
	if result.Classification != nil {
		priority = result.Classification.Priority
		category = result.Classification.Category
		sentiment = result.Classification.Sentiment
	}
	response := result.Response
	if !result.Success {
		response = result.FallbackResponse
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (id, ticket_id, channel, sender, content, priority, category, sentiment, response, model_used, success, sent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), result.TicketID, msg.Channel, msg.Sender, msg.Content,
		priority, category, sentiment, response, result.ModelUsed,
		boolToInt(result.Success), boolToInt(sent),
	)
	if err != nil {
		s.logger.Error("history write failed", "ticket_id", result.TicketID, "error", err)
	}
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_id, channel, sender, content, priority, category, sentiment, response, model_used, success, sent, created_at
		FROM tickets ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var success, sent int
		if err := rows.Scan(&e.ID, &e.TicketID, &e.Channel, &e.Sender, &e.Content,
			&e.Priority, &e.Category, &e.Sentiment, &e.Response, &e.ModelUsed,
			&success, &sent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		e.Success = success != 0
		e.Sent = sent != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
