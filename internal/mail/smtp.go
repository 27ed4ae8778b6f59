// Package mail wraps the SMTP and IMAP plumbing the email channel sits on:
// STARTTLS submission, TLS polling for unseen messages, and multipart body
// extraction.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Mailer submits single-recipient messages over SMTP with STARTTLS and PLAIN
// auth.
type Mailer struct {
	addr     string // host:port
	username string
	password string
	logger   *slog.Logger
}

type MailerConfig struct {
	Addr     string
	Username string
	Password string
	Logger   *slog.Logger
}

func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{
		addr:     cfg.Addr,
		username: cfg.Username,
		password: cfg.Password,
		logger:   cfg.Logger,
	}
}

// Send submits one message. Threading headers are set when inReplyTo is
// non-empty.
func (m *Mailer) Send(ctx context.Context, to, subject, body, inReplyTo string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", m.username)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	if inReplyTo != "" {
		fmt.Fprintf(&sb, "In-Reply-To: %s\r\n", inReplyTo)
		fmt.Fprintf(&sb, "References: %s\r\n", inReplyTo)
	}
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	auth := sasl.NewPlainClient("", m.username, m.password)
	if err := smtp.SendMail(m.addr, auth, m.username, []string{to}, strings.NewReader(sb.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	m.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

// Probe performs a login/quit round trip against the SMTP server.
func (m *Mailer) Probe(ctx context.Context) error {
	c, err := smtp.DialStartTLS(m.addr, nil)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", m.addr, err)
	}
	defer c.Close()

	if err := c.Auth(sasl.NewPlainClient("", m.username, m.password)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	return c.Quit()
}
