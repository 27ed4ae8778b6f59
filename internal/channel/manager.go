package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/domain"
)

// Processor turns a normalized message into a processing envelope. Satisfied
// by the orchestrator.
type Processor interface {
	ProcessMessage(ctx context.Context, msg *domain.Message) *domain.ProcessingResult
}

// Recorder persists processed tickets for later inspection. Optional.
type Recorder interface {
	Record(ctx context.Context, msg *domain.Message, result *domain.ProcessingResult, sent bool)
}

// Observer counts pipeline events. Optional.
type Observer interface {
	MessageProcessed(channel string, success bool)
	ReplySent(channel string)
}

// Manager owns the adapter registry and runs the full inbound flow for one
// raw payload: parse, process, format, reply. Channels are registered once at
// startup; the map is read-only afterwards, so no locking.
type Manager struct {
	channels  map[string]domain.Channel
	processor Processor
	history   Recorder
	observer  Observer
	logger    *slog.Logger
}

type ManagerConfig struct {
	Processor Processor
	History   Recorder
	Observer  Observer
	Logger    *slog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		channels:  map[string]domain.Channel{},
		processor: cfg.Processor,
		history:   cfg.History,
		observer:  cfg.Observer,
		logger:    cfg.Logger,
	}
}

// Register adds a channel adapter under its own name.
func (m *Manager) Register(ch domain.Channel) {
	m.channels[ch.Name()] = ch
	m.logger.Info("channel registered", "channel", ch.Name())
}

// Available lists registered channel names, sorted.
func (m *Manager) Available() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Channel returns the named adapter.
func (m *Manager) Channel(name string) (domain.Channel, bool) {
	ch, ok := m.channels[name]
	return ch, ok
}

// Process runs the full flow for one raw inbound payload. It never returns
// an error: failures are encoded in the DispatchResult so HTTP handlers can
// always answer the sending platform with a well-formed body.
func (m *Manager) Process(ctx context.Context, channelName string, raw []byte) domain.DispatchResult {
	res := domain.DispatchResult{Channel: channelName}

	ch, ok := m.channels[channelName]
	if !ok {
		res.Err = fmt.Sprintf("unknown channel: %s", channelName)
		m.logger.Warn("dispatch to unknown channel", "channel", channelName)
		return res
	}

	msg, ok := ch.Parse(raw)
	if !ok {
		res.Err = "unrecognized payload"
		return res
	}

	result := m.processor.ProcessMessage(ctx, msg)
	res.Processed = true
	res.Result = result
	if m.observer != nil {
		m.observer.MessageProcessed(channelName, result.Success)
	}

	// Only a successful envelope carries a customer-facing response. The
	// fallback apology stays in the returned envelope; it is never delivered.
	reply := result.Response
	if reply == "" {
		m.record(ctx, msg, result, false)
		return res
	}

	to, opts := deliveryParams(msg)
	if to == "" {
		m.logger.Warn("no reply destination", "channel", channelName, "message_id", msg.MessageID)
		m.record(ctx, msg, result, false)
		return res
	}

	res.Sent = ch.Send(ctx, to, ch.FormatResponse(reply), opts)
	if res.Sent && m.observer != nil {
		m.observer.ReplySent(channelName)
	}
	m.record(ctx, msg, result, res.Sent)
	return res
}

// deliveryParams derives the reply destination and threading options from the
// inbound message.
func deliveryParams(msg *domain.Message) (string, domain.SendOptions) {
	var opts domain.SendOptions
	to := msg.Sender

	switch msg.Channel {
	case telegramChannelTag:
		if chatID := msg.Metadata["chat_id"]; chatID != "" {
			to = chatID
		}
		if id, err := strconv.Atoi(msg.MessageID); err == nil {
			opts.ReplyToMessageID = id
		}
	case emailChannelTag:
		subject := msg.Metadata["subject"]
		switch {
		case subject == "":
			opts.Subject = emailDefaultSubject
		case strings.HasPrefix(strings.ToLower(subject), "re:"):
			opts.Subject = subject
		default:
			opts.Subject = "Re: " + subject
		}
		opts.InReplyTo = msg.MessageID
	}
	return to, opts
}

func (m *Manager) record(ctx context.Context, msg *domain.Message, result *domain.ProcessingResult, sent bool) {
	if m.history == nil {
		return
	}
	m.history.Record(ctx, msg, result, sent)
}

// Status probes every registered channel.
func (m *Manager) Status(ctx context.Context) map[string]domain.ConnectionStatus {
	out := make(map[string]domain.ConnectionStatus, len(m.channels))
	for name, ch := range m.channels {
		out[name] = ch.TestConnection(ctx)
	}
	return out
}

// Describe returns the static capability info for every registered channel.
func (m *Manager) Describe() map[string]domain.ChannelInfo {
	out := make(map[string]domain.ChannelInfo, len(m.channels))
	for name, ch := range m.channels {
		out[name] = ch.Info()
	}
	return out
}

// SendTest delivers an ad-hoc message through the named channel, outside the
// normal pipeline. The text goes out as-is, without channel formatting. Used
// by the operator send endpoint.
func (m *Manager) SendTest(ctx context.Context, channelName, to, text string) (bool, error) {
	ch, ok := m.channels[channelName]
	if !ok {
		return false, fmt.Errorf("unknown channel: %s", channelName)
	}
	return ch.Send(ctx, to, text, domain.SendOptions{}), nil
}
