// Package bot is the chat command surface: it turns "!remindme", "!time" and
// "!timeto" messages into store updates and one-line replies, and serves
// them over any channels.Channel.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/channels"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/reminder"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/timezone"
)

// CommandResult contains the result of a command execution.
type CommandResult struct {
	// Response is the text to send back.
	Response string

	// Handled is true if the message was a recognised command.
	Handled bool
}

// Service executes commands against a reminder store.
type Service struct {
	store    reminder.Store
	resolver *timezone.Resolver
	prefix   string
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Service. An empty prefix means "!".
func New(store reminder.Store, resolver *timezone.Resolver, prefix string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = "!"
	}
	return &Service{
		store:    store,
		resolver: resolver,
		prefix:   prefix,
		logger:   logger.With("component", "bot"),
		now:      time.Now,
	}
}

// SetClock replaces the time source, for tests and the parse CLI.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Prefix returns the command prefix.
func (s *Service) Prefix() string { return s.prefix }

// Serve answers commands arriving on ch until ctx is done or the channel's
// Receive stream closes. Replies go back to the chat the command came from.
func (s *Service) Serve(ctx context.Context, ch channels.Channel) error {
	in := ch.Receive()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-in:
			if !ok {
				s.logger.Info("channel closed, stopping", "channel", ch.Name())
				return nil
			}
			s.reply(ctx, ch, msg)
		}
	}
}

func (s *Service) reply(ctx context.Context, ch channels.Channel, msg *channels.IncomingMessage) {
	if !strings.HasPrefix(strings.TrimSpace(msg.Content), s.prefix) {
		return
	}

	result := s.HandleCommand(ctx, msg.From, msg.Content)
	if !result.Handled || result.Response == "" {
		return
	}

	s.logger.Debug("command handled",
		"channel", ch.Name(), "user", msg.From, "chat", msg.ChatID)

	out := &channels.OutgoingMessage{Content: result.Response, ReplyTo: msg.ID}
	if err := ch.Send(ctx, msg.ChatID, out); err != nil {
		s.logger.Error("failed to send reply",
			"channel", ch.Name(), "chat", msg.ChatID, "error", err)
	}
}
