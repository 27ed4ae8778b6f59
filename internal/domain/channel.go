package domain

import "context"

// SendOptions carries the channel-specific delivery parameters the manager
// derives per message. Adapters read only the fields they understand.
type SendOptions struct {
	// ReplyToMessageID links a Telegram reply to the inbound message.
	ReplyToMessageID int
	// Subject and InReplyTo drive email threading.
	Subject   string
	InReplyTo string
}

// ConnectionStatus is the transient result of a live channel probe. It is
// computed on demand and never cached.
type ConnectionStatus struct {
	Status string            `json:"status"` // "connected" | "error"
	Detail map[string]string `json:"detail,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Connected reports whether the probe succeeded.
func (s ConnectionStatus) Connected() bool { return s.Status == "connected" }

// ChannelInfo describes a channel's static capabilities.
type ChannelInfo struct {
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	SupportsMedia      bool     `json:"supports_media"`
	SupportsFormatting bool     `json:"supports_formatting"`
	MaxMessageLength   int      `json:"max_message_length"`
	Features           []string `json:"features,omitempty"`
}

// Channel translates between a messaging channel's native wire format and the
// normalized Message shape. The adapter set is closed: implementations are
// registered by name in the channel manager's map, never discovered.
//
// Send swallows transport errors into a false return; Parse reports an
// unrecognized payload as ok=false. Neither ever panics or returns an error —
// degradation is part of the contract.
type Channel interface {
	Name() string
	Parse(raw []byte) (msg *Message, ok bool)
	Send(ctx context.Context, to, content string, opts SendOptions) bool
	FormatResponse(text string) string
	TestConnection(ctx context.Context) ConnectionStatus
	Info() ChannelInfo
}
