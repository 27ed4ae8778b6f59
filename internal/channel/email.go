package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/domain"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/mail"
)

const (
	emailChannelTag     = "email"
	emailDefaultSubject = "Response from Cassava Support"
	emailMaxBodyLen     = 50000
)

var addressPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// Sender delivers one outbound email. Satisfied by *mail.Mailer.
type Sender interface {
	Send(ctx context.Context, to, subject, body, inReplyTo string) error
}

// Prober checks IMAP reachability. Satisfied by *mail.Fetcher.
type Prober interface {
	Probe(ctx context.Context) error
}

// Email implements domain.Channel over SMTP delivery and IMAP-polled or
// webhook-posted inbound mail.
type Email struct {
	mailer Sender
	imap   Prober
	logger *slog.Logger
}

type EmailConfig struct {
	Mailer Sender
	IMAP   Prober
	Logger *slog.Logger
}

func NewEmail(cfg EmailConfig) *Email {
	return &Email{
		mailer: cfg.Mailer,
		imap:   cfg.IMAP,
		logger: cfg.Logger,
	}
}

func (e *Email) Name() string { return emailChannelTag }

// emailPayload tolerates both inbound shapes: the IMAP poller's
// mail.Inbound JSON and provider webhook posts, which name the body and id
// fields differently.
type emailPayload struct {
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	Text      string `json:"text"`
	Body      string `json:"body"`
	MessageID string `json:"message_id"`
	ID        string `json:"id"`
	Provider  string `json:"provider"`
}

func (p emailPayload) body() string {
	for _, v := range []string{p.Content, p.Text, p.Body} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (p emailPayload) messageID() string {
	if p.MessageID != "" {
		return p.MessageID
	}
	return p.ID
}

func (e *Email) Parse(raw []byte) (*domain.Message, bool) {
	var p emailPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		e.logger.Error("invalid email payload", "error", err)
		return nil, false
	}

	sender := extractAddress(p.From)
	content := p.body()
	if sender == "" || content == "" {
		return nil, false
	}

	meta := map[string]string{
		"subject": p.Subject,
	}
	if p.Provider != "" {
		meta["provider"] = p.Provider
	}

	return &domain.Message{
		Content:   content,
		Sender:    sender,
		Channel:   emailChannelTag,
		MessageID: p.messageID(),
		Metadata:  meta,
	}, true
}

// extractAddress pulls the bare address out of a From header, accepting both
// "Jane Doe <jane@example.com>" and a plain address.
func extractAddress(from string) string {
	if m := addressPattern.FindString(from); m != "" {
		return m
	}
	return strings.TrimSpace(from)
}

func (e *Email) Send(ctx context.Context, to, content string, opts domain.SendOptions) bool {
	if e.mailer == nil {
		e.logger.Error("email sending not configured")
		return false
	}
	subject := opts.Subject
	if subject == "" {
		subject = emailDefaultSubject
	}
	if err := e.mailer.Send(ctx, to, subject, content, opts.InReplyTo); err != nil {
		e.logger.Error("email send failed", "to", to, "error", err)
		return false
	}
	e.logger.Info("email sent", "to", to, "subject", subject)
	return true
}

// FormatResponse wraps the reply body in the standard support letter.
func (e *Email) FormatResponse(text string) string {
	return fmt.Sprintf(`Dear Customer,

%s

If you have any further questions, please don't hesitate to reach out.

Best regards,
Cassava Network Support Team

---
This is an automated response. For urgent matters, please contact our support line.`, text)
}

// TestConnection probes SMTP and, when configured, IMAP.
func (e *Email) TestConnection(ctx context.Context) domain.ConnectionStatus {
	detail := map[string]string{}

	smtpProber, ok := e.mailer.(Prober)
	if !ok {
		return domain.ConnectionStatus{Status: "error", Error: "smtp not configured"}
	}
	if err := smtpProber.Probe(ctx); err != nil {
		return domain.ConnectionStatus{Status: "error", Error: fmt.Sprintf("smtp: %v", err)}
	}
	detail["smtp"] = "ok"

	if e.imap != nil {
		if err := e.imap.Probe(ctx); err != nil {
			return domain.ConnectionStatus{Status: "error", Detail: detail, Error: fmt.Sprintf("imap: %v", err)}
		}
		detail["imap"] = "ok"
	}

	return domain.ConnectionStatus{Status: "connected", Detail: detail}
}

func (e *Email) Info() domain.ChannelInfo {
	return domain.ChannelInfo{
		Name:               emailChannelTag,
		Type:               "EmailChannel",
		SupportsMedia:      true,
		SupportsFormatting: false,
		MaxMessageLength:   emailMaxBodyLen,
		Features:           []string{"threading", "attachments"},
	}
}

var _ Sender = (*mail.Mailer)(nil)
