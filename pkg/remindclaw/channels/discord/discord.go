// Package discord implements the Discord channel using discordgo. Commands
// arrive from guild channels and DMs; reminders are delivered by DM.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/channels"
)

// maxMessageLen is Discord's per-message character limit.
const maxMessageLen = 2000

// Config holds Discord channel configuration.
type Config struct {
	// Token is the Discord bot token.
	Token string `yaml:"token"`

	// AllowedGuilds restricts which guild (server) IDs the bot responds in.
	// Empty means respond in all guilds.
	AllowedGuilds []string `yaml:"allowed_guilds"`

	// AllowedChannels restricts which channel IDs the bot responds in.
	// Empty means respond in all channels.
	AllowedChannels []string `yaml:"allowed_channels"`
}

// Discord implements channels.Channel and channels.DirectMessenger.
type Discord struct {
	cfg     Config
	logger  *slog.Logger
	session *discordgo.Session

	messages chan *channels.IncomingMessage
	done     chan struct{}

	connected  atomic.Bool
	lastMsg    atomic.Value // time.Time
	errorCount atomic.Int64
}

// New creates a new Discord channel instance.
func New(cfg Config, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discord{
		cfg:      cfg,
		logger:   logger.With("component", "discord"),
		messages: make(chan *channels.IncomingMessage, 256),
		done:     make(chan struct{}),
	}
}

// Name returns "discord".
func (d *Discord) Name() string { return "discord" }

// Connect opens the Discord gateway WebSocket connection.
func (d *Discord) Connect(ctx context.Context) error {
	if d.cfg.Token == "" {
		return fmt.Errorf("discord: bot token is required")
	}

	session, err := discordgo.New("Bot " + d.cfg.Token)
	if err != nil {
		return fmt.Errorf("discord: creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	session.AddHandler(d.onMessageCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: opening gateway: %w", err)
	}

	d.session = session
	d.connected.Store(true)

	user := session.State.User
	d.logger.Info("discord: connected", "bot", user.Username, "id", user.ID)
	return nil
}

// Disconnect closes the Discord gateway connection. Receive stays open;
// messages still in flight from the gateway are dropped.
func (d *Discord) Disconnect() error {
	if !d.connected.Swap(false) {
		return nil
	}
	close(d.done)
	if d.session != nil {
		d.session.Close()
	}
	d.logger.Info("discord: disconnected")
	return nil
}

// Send sends a text message to a channel, split into 2000-character chunks.
func (d *Discord) Send(ctx context.Context, to string, message *channels.OutgoingMessage) error {
	if d.session == nil || !d.connected.Load() {
		return channels.ErrChannelDisconnected
	}

	for i, chunk := range channels.SplitMessage(message.Content, maxMessageLen) {
		msgSend := &discordgo.MessageSend{Content: chunk}
		if i == 0 && message.ReplyTo != "" {
			msgSend.Reference = &discordgo.MessageReference{MessageID: message.ReplyTo, ChannelID: to}
		}
		if _, err := d.session.ChannelMessageSendComplex(to, msgSend, discordgo.WithContext(ctx)); err != nil {
			d.errorCount.Add(1)
			return fmt.Errorf("discord: send to %s: %w", to, err)
		}
	}
	return nil
}

// SendDirect opens (or reuses) the DM channel with userID and sends text.
func (d *Discord) SendDirect(ctx context.Context, userID, text string) error {
	if d.session == nil || !d.connected.Load() {
		return channels.ErrChannelDisconnected
	}

	dm, err := d.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		d.errorCount.Add(1)
		return fmt.Errorf("discord: open DM with %s: %w", userID, err)
	}
	return d.Send(ctx, dm.ID, &channels.OutgoingMessage{Content: text})
}

// Receive returns the incoming messages channel.
func (d *Discord) Receive() <-chan *channels.IncomingMessage {
	return d.messages
}

// IsConnected returns true if the bot is connected.
func (d *Discord) IsConnected() bool { return d.connected.Load() }

// Health returns the channel health status.
func (d *Discord) Health() channels.HealthStatus {
	var lastAt time.Time
	if v := d.lastMsg.Load(); v != nil {
		lastAt = v.(time.Time)
	}
	return channels.HealthStatus{
		Connected:     d.connected.Load(),
		LastMessageAt: lastAt,
		ErrorCount:    int(d.errorCount.Load()),
	}
}

// onMessageCreate forwards user messages that pass the allowlists.
func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if !d.allowed(m.GuildID, m.ChannelID) {
		return
	}

	incoming := &channels.IncomingMessage{
		ID:        m.ID,
		Channel:   "discord",
		From:      m.Author.ID,
		FromName:  m.Author.Username,
		ChatID:    m.ChannelID,
		IsGroup:   m.GuildID != "",
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}

	d.lastMsg.Store(time.Now())

	select {
	case <-d.done:
		return
	default:
	}

	select {
	case d.messages <- incoming:
	default:
		d.logger.Warn("discord: message buffer full, dropping message", "msg_id", incoming.ID)
	}
}

// allowed applies the guild and channel allowlists. DMs are never filtered
// by guild.
func (d *Discord) allowed(guildID, channelID string) bool {
	if len(d.cfg.AllowedGuilds) > 0 && guildID != "" && !slices.Contains(d.cfg.AllowedGuilds, guildID) {
		return false
	}
	if len(d.cfg.AllowedChannels) > 0 && guildID != "" && !slices.Contains(d.cfg.AllowedChannels, channelID) {
		return false
	}
	return true
}

var (
	_ channels.Channel         = (*Discord)(nil)
	_ channels.DirectMessenger = (*Discord)(nil)
)
