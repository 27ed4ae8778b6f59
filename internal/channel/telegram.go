// Package channel holds the adapters that translate between a messaging
// channel's native wire format and the normalized message shape, plus the
// manager that dispatches over them.
package channel

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/domain"
)

const (
	// Hard Telegram API limit per message.
	telegramMaxMsgLen  = 4096
	telegramSignature  = "\n\n---\n*Cassava Network Support* 🤖"
	telegramEllipsis   = "..."
	telegramChannelTag = "telegram"
)

// Telegram implements domain.Channel over the Telegram Bot API.
type Telegram struct {
	token  string
	logger *slog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

type TelegramConfig struct {
	Token  string
	Logger *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	return &Telegram{
		token:  cfg.Token,
		logger: cfg.Logger,
	}
}

func (t *Telegram) Name() string { return telegramChannelTag }

// ensureBot lazily connects to the Bot API. The constructor stays
// network-free so parsing and formatting work without credentials.
func (t *Telegram) ensureBot() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return nil, err
	}
	t.bot = bot
	return bot, nil
}

// Parse maps a Bot API webhook update onto the normalized message shape. An
// update without a message (edits, callbacks, member events) is not an error,
// just not ours to handle.
func (t *Telegram) Parse(raw []byte) (*domain.Message, bool) {
	var update tgbotapi.Update
	if err := json.Unmarshal(raw, &update); err != nil {
		t.logger.Error("invalid telegram payload", "error", err)
		return nil, false
	}
	msg := update.Message
	if msg == nil {
		return nil, false
	}

	meta := map[string]string{}
	if msg.Chat != nil {
		meta["chat_id"] = strconv.FormatInt(msg.Chat.ID, 10)
		meta["chat_type"] = msg.Chat.Type
	}
	sender := ""
	if msg.From != nil {
		sender = strconv.FormatInt(msg.From.ID, 10)
		meta["username"] = msg.From.UserName
		meta["first_name"] = msg.From.FirstName
	}

	return &domain.Message{
		Content:   msg.Text,
		Sender:    sender,
		Channel:   telegramChannelTag,
		MessageID: strconv.Itoa(msg.MessageID),
		Metadata:  meta,
	}, true
}

// Send delivers one message via sendMessage. Transport errors are logged and
// reported as false, never propagated.
func (t *Telegram) Send(ctx context.Context, to, content string, opts domain.SendOptions) bool {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		t.logger.Error("invalid telegram chat id", "to", to, "error", err)
		return false
	}

	bot, err := t.ensureBot()
	if err != nil {
		t.logger.Error("telegram bot unavailable", "error", err)
		return false
	}

	msg := tgbotapi.NewMessage(chatID, content)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if opts.ReplyToMessageID != 0 {
		msg.ReplyToMessageID = opts.ReplyToMessageID
	}

	if _, err := bot.Send(msg); err != nil {
		t.logger.Error("telegram send failed", "chat_id", chatID, "error", err)
		return false
	}
	t.logger.Info("telegram message sent", "chat_id", chatID)
	return true
}

// FormatResponse appends the support signature and enforces the 4096-char
// API limit by truncating the body, never the signature.
func (t *Telegram) FormatResponse(text string) string {
	formatted := text + telegramSignature
	if len(formatted) <= telegramMaxMsgLen {
		return formatted
	}

	budget := telegramMaxMsgLen - len(telegramSignature) - len(telegramEllipsis)
	truncated := text[:budget]
	// Back off until the cut lands on a rune boundary.
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + telegramEllipsis + telegramSignature
}

// TestConnection performs a getMe call.
func (t *Telegram) TestConnection(ctx context.Context) domain.ConnectionStatus {
	bot, err := t.ensureBot()
	if err != nil {
		return domain.ConnectionStatus{Status: "error", Error: err.Error()}
	}
	me, err := bot.GetMe()
	if err != nil {
		return domain.ConnectionStatus{Status: "error", Error: err.Error()}
	}
	return domain.ConnectionStatus{
		Status: "connected",
		Detail: map[string]string{
			"bot_username": me.UserName,
			"bot_id":       strconv.FormatInt(me.ID, 10),
		},
	}
}

func (t *Telegram) Info() domain.ChannelInfo {
	return domain.ChannelInfo{
		Name:               telegramChannelTag,
		Type:               "TelegramChannel",
		SupportsMedia:      true,
		SupportsFormatting: true,
		MaxMessageLength:   telegramMaxMsgLen,
		Features:           []string{"markdown", "reply_threading", "inline_keyboards"},
	}
}
