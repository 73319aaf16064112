package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/bot"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/channels"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/reminder"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/scheduler"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/timezone"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "relative",
			args: []string{"parse", "--now", "2021-01-01T00:00:00Z", "5", "weeks", "Do", "something!"},
			want: []string{"due:      2021-02-05T00:00:00Z", `text:     "Do something!"`, "kind:     relative"},
		},
		{
			name: "absolute in zone",
			args: []string{"parse", "--tz", "est", "--now", "2020-04-13T14:00:00Z", "4:13", "PM", "call", "mom"},
			want: []string{"due:      2020-04-13T20:13:00Z", "local:    2020-04-13T16:13:00-04:00", "kind:     absolute"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	t.Parallel()

	if _, err := execute(t, "parse", "--now", "yesterday", "5m", "x"); err == nil {
		t.Error("bad --now accepted")
	}
	if _, err := execute(t, "parse", "--tz", "xyzzy", "5m", "x"); err == nil {
		t.Error("bad --tz accepted")
	}
	if _, err := execute(t, "parse", "whenever"); err == nil {
		t.Error("unparseable expression accepted")
	}
}

func TestTZCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "tz", "tokyo")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out, "Asia/Tokyo (JST) ") {
		t.Errorf("output = %q", out)
	}

	if strings.Contains(out, "abbreviation") {
		t.Errorf("tokyo is not an abbreviation: %q", out)
	}

	out, err = execute(t, "tz", "utc")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "abbreviation UTC is currently recorded for ") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "tz", "xyzzy"); err == nil {
		t.Error("unknown zone accepted")
	}
}

func TestUserStoreScopesScan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := reminder.NewMemoryStore()
	due := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	_ = mem.SetReminders(ctx, "me", []reminder.Reminder{reminder.New(due, "mine")})
	_ = mem.SetReminders(ctx, "other", []reminder.Reminder{reminder.New(due, "theirs")})

	all, err := userStore{Store: mem, user: "me"}.AllReminders(ctx)
	if err != nil {
		t.Fatalf("AllReminders: %v", err)
	}
	if len(all) != 1 || len(all["me"]) != 1 {
		t.Errorf("AllReminders = %v", all)
	}

	empty, err := userStore{Store: mem, user: "nobody"}.AllReminders(ctx)
	if err != nil || len(empty) != 0 {
		t.Errorf("AllReminders for nobody = %v, %v", empty, err)
	}
}

// lockedStore fails every scan, as a busy SQLite file does.
type lockedStore struct {
	*reminder.MemoryStore
}

func (lockedStore) AllReminders(context.Context) (map[string][]reminder.Reminder, error) {
	return nil, errors.New("database is locked")
}

// doneLoop reports when the wrapped loop has returned.
type doneLoop struct {
	loop
	done chan error
}

func (l doneLoop) Run(ctx context.Context) error {
	err := l.loop.Run(ctx)
	l.done <- err
	return err
}

// replyChannel is a channels.Channel whose replies are read from out.
type replyChannel struct {
	in  chan *channels.IncomingMessage
	out chan string
}

func (c *replyChannel) Name() string { return "test" }
func (c *replyChannel) Connect(context.Context) error { return nil }
func (c *replyChannel) Disconnect() error { return nil }
func (c *replyChannel) Receive() <-chan *channels.IncomingMessage { return c.in }
func (c *replyChannel) IsConnected() bool { return true }
func (c *replyChannel) Health() channels.HealthStatus { return channels.HealthStatus{Connected: true} }

func (c *replyChannel) Send(_ context.Context, _ string, msg *channels.OutgoingMessage) error {
	c.out <- msg.Content
	return nil
}

func (c *replyChannel) SendDirect(_ context.Context, _, text string) error {
	c.out <- text
	return nil
}

func TestRunBotSurvivesSchedulerHalt(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := reminder.NewMemoryStore()
	ch := &replyChannel{in: make(chan *channels.IncomingMessage, 1), out: make(chan string, 4)}

	sched := scheduler.New(lockedStore{store}, ch, scheduler.Config{Interval: time.Hour, HaltOnError: true}, logger)
	deliveries := doneLoop{loop: sched, done: make(chan error, 1)}
	svc := bot.New(store, timezone.NewResolver(nil, time.Now()), "!", logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan error, 1)
	go func() {
		result <- runBot(ctx, logger, deliveries, func(ctx context.Context) error {
			return svc.Serve(ctx, ch)
		})
	}()

	select {
	case err := <-deliveries.done:
		if err == nil || !strings.Contains(err.Error(), "database is locked") {
			t.Fatalf("scheduler returned %v, want the store error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not halt")
	}

	ch.in <- &channels.IncomingMessage{ID: "1", From: "u1", ChatID: "c1", Content: "!time est"}
	select {
	case got := <-ch.out:
		if !strings.HasPrefix(got, "The time in E") {
			t.Errorf("reply = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("command loop stopped answering after the scheduler halted")
	}

	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Errorf("runBot = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runBot did not return after cancel")
	}
}
