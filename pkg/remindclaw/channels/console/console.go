// Package console implements a local terminal channel on top of
// chzyer/readline. Every line typed is delivered as a message from a single
// configured user, and replies and reminder deliveries are printed.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/channels"
)

// Config holds console channel configuration.
type Config struct {
	// UserID is the identity every typed line is attributed to.
	UserID string `yaml:"user_id"`

	// Prompt is shown before each line.
	Prompt string `yaml:"prompt"`

	// HistoryFile persists line history between sessions. Empty disables it.
	HistoryFile string `yaml:"history_file"`
}

// DefaultConfig returns the console defaults.
func DefaultConfig() Config {
	return Config{UserID: "console", Prompt: "remindclaw> "}
}

// lineReader is the subset of *readline.Instance the channel uses.
type lineReader interface {
	Readline() (string, error)
	Stdout() io.Writer
	Close() error
}

// Console implements channels.Channel and channels.DirectMessenger.
type Console struct {
	cfg    Config
	logger *slog.Logger

	mu  sync.Mutex
	rl  lineReader
	out io.Writer

	messages  chan *channels.IncomingMessage
	done      chan struct{}
	seq       atomic.Int64
	connected atomic.Bool
	lastMsg   atomic.Value // time.Time
}

// New creates a console channel.
func New(cfg Config, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UserID == "" {
		cfg.UserID = DefaultConfig().UserID
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultConfig().Prompt
	}
	return &Console{
		cfg:      cfg,
		logger:   logger.With("component", "console"),
		messages: make(chan *channels.IncomingMessage, 16),
		done:     make(chan struct{}),
	}
}

// Name returns "console".
func (c *Console) Name() string { return "console" }

// Connect opens the terminal and starts reading lines.
func (c *Console) Connect(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.cfg.Prompt,
		HistoryFile:     c.cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("console: opening terminal: %w", err)
	}
	c.attach(ctx, rl)
	return nil
}

// attach starts the read loop over rl.
func (c *Console) attach(ctx context.Context, rl lineReader) {
	c.mu.Lock()
	c.rl = rl
	c.out = rl.Stdout()
	c.mu.Unlock()

	c.connected.Store(true)
	go c.readLoop(ctx)
}

// readLoop turns lines into messages until EOF, "exit" or ctx ends. It
// owns the messages channel and closes it on return.
func (c *Console) readLoop(ctx context.Context) {
	defer close(c.messages)
	defer c.connected.Store(false)

	for {
		line, err := c.rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return
			}
			continue
		case errors.Is(err, io.EOF):
			return
		case err != nil:
			c.logger.Warn("console: read failed", "error", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		now := time.Now()
		c.lastMsg.Store(now)
		msg := &channels.IncomingMessage{
			ID:        fmt.Sprintf("console-%d", c.seq.Add(1)),
			Channel:   "console",
			From:      c.cfg.UserID,
			FromName:  c.cfg.UserID,
			ChatID:    c.cfg.UserID,
			Content:   line,
			Timestamp: now,
		}

		select {
		case c.messages <- msg:
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

// Disconnect closes the terminal. The read loop exits and closes Receive.
func (c *Console) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rl == nil {
		return nil
	}
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	return c.rl.Close()
}

// Send prints a reply. The destination is ignored; there is one terminal.
func (c *Console) Send(_ context.Context, _ string, message *channels.OutgoingMessage) error {
	return c.print(message.Content)
}

// SendDirect prints a delivery addressed to userID.
func (c *Console) SendDirect(_ context.Context, userID, text string) error {
	if userID != c.cfg.UserID {
		return fmt.Errorf("%w: console only serves %q", channels.ErrSendFailed, c.cfg.UserID)
	}
	return c.print("⏰ " + text)
}

func (c *Console) print(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.out == nil || !c.connected.Load() {
		return channels.ErrChannelDisconnected
	}
	if _, err := fmt.Fprintln(c.out, text); err != nil {
		return fmt.Errorf("%w: %w", channels.ErrSendFailed, err)
	}
	return nil
}

// Receive returns the incoming messages channel.
func (c *Console) Receive() <-chan *channels.IncomingMessage { return c.messages }

// IsConnected reports whether the terminal is still being read.
func (c *Console) IsConnected() bool { return c.connected.Load() }

// Health returns the channel health status.
func (c *Console) Health() channels.HealthStatus {
	var lastAt time.Time
	if v := c.lastMsg.Load(); v != nil {
		lastAt = v.(time.Time)
	}
	return channels.HealthStatus{Connected: c.connected.Load(), LastMessageAt: lastAt}
}

var (
	_ channels.Channel         = (*Console)(nil)
	_ channels.DirectMessenger = (*Console)(nil)
)
