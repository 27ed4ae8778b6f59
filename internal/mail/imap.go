package mail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
)

// Inbound is one fetched email in the polling wire shape the email channel
// adapter understands.
type Inbound struct {
	From       string `json:"from"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
	MessageID  string `json:"message_id"`
	ReceivedAt string `json:"received_at"`
}

// Fetcher polls an IMAP mailbox over TLS for unseen messages.
type Fetcher struct {
	addr     string // host:port
	username string
	password string
	logger   *slog.Logger
}

type FetcherConfig struct {
	Addr     string
	Username string
	Password string
	Logger   *slog.Logger
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	return &Fetcher{
		addr:     cfg.Addr,
		username: cfg.Username,
		password: cfg.Password,
		logger:   cfg.Logger,
	}
}

// FetchUnseen returns unseen INBOX messages received since the given time.
// Messages that cannot be parsed are skipped with a log line; a transport
// error aborts the whole fetch.
func (f *Fetcher) FetchUnseen(since time.Time) ([]Inbound, error) {
	c, err := client.DialTLS(f.addr, nil)
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", f.addr, err)
	}
	defer c.Logout()

	if err := c.Login(f.username, f.password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}

	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("imap select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	criteria.WithoutFlags = []string{imap.SeenFlag}

	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var out []Inbound
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		inbound, err := parseMessage(body)
		if err != nil {
			f.logger.Error("skipping unparseable email", "error", err)
			continue
		}
		if inbound.Content == "" || inbound.From == "" {
			continue
		}
		f.logger.Info("fetched email", "from", inbound.From, "subject", inbound.Subject)
		out = append(out, inbound)
	}

	if err := <-done; err != nil {
		return out, fmt.Errorf("imap fetch: %w", err)
	}
	return out, nil
}

// Probe performs a login/logout round trip against the IMAP server.
func (f *Fetcher) Probe(ctx context.Context) error {
	dialer := &net.Dialer{}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	c, err := client.DialWithDialerTLS(dialer, f.addr, nil)
	if err != nil {
		return fmt.Errorf("imap dial %s: %w", f.addr, err)
	}
	defer c.Logout()

	if err := c.Login(f.username, f.password); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}
	return nil
}

// parseMessage extracts headers and the first text/plain part from a raw
// RFC822 message.
func parseMessage(r io.Reader) (Inbound, error) {
	mr, err := gomail.CreateReader(r)
	if err != nil {
		return Inbound{}, fmt.Errorf("create mail reader: %w", err)
	}

	subject, _ := mr.Header.Subject()
	inbound := Inbound{
		From:       mr.Header.Get("From"),
		Subject:    subject,
		MessageID:  mr.Header.Get("Message-Id"),
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
	}
	inbound.Content = extractTextPlain(mr)
	return inbound, nil
}

// extractTextPlain walks the message parts and returns the first text/plain
// body, trimmed. Multipart messages yield their first plain part; single-part
// plain messages yield the whole body.
func extractTextPlain(mr *gomail.Reader) string {
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return ""
		}
		if err != nil {
			return ""
		}
		h, ok := p.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, err := h.ContentType()
		if err != nil || ct != "text/plain" {
			continue
		}
		b, err := io.ReadAll(p.Body)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}
