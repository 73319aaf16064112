package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/reminder"
)

var now = time.Date(2021, time.January, 1, 12, 0, 0, 0, time.UTC)

type sent struct {
	user, text string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sent
	fail   map[string]bool
	panics map[string]bool
	block  bool
	ch     chan sent
}

func (n *fakeNotifier) SendDirect(ctx context.Context, userID, text string) error {
	if n.panics[text] {
		panic("malformed reminder")
	}
	if n.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if n.fail[userID] {
		return errors.New("user has DMs disabled")
	}

	n.mu.Lock()
	n.sent = append(n.sent, sent{userID, text})
	n.mu.Unlock()
	if n.ch != nil {
		n.ch <- sent{userID, text}
	}
	return nil
}

func (n *fakeNotifier) texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.text
	}
	return out
}

func newScheduler(t *testing.T, store reminder.Store, n Notifier, cfg Config) *Scheduler {
	t.Helper()
	s := New(store, n, cfg, nil)
	s.SetClock(func() time.Time { return now })
	return s
}

func seed(t *testing.T, store reminder.Store, user string, list ...reminder.Reminder) {
	t.Helper()
	if err := store.SetReminders(context.Background(), user, list); err != nil {
		t.Fatal(err)
	}
}

func TestTickDeliversDueReminderOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := reminder.NewMemoryStore()
	seed(t, store, "alice",
		reminder.New(now.Add(-time.Minute), "overdue"),
		reminder.New(now, "exactly now"),
		reminder.New(now.Add(time.Minute), "not yet"),
	)
	n := &fakeNotifier{}
	s := newScheduler(t, store, n, DefaultConfig())

	first := s.Tick(ctx)
	second := s.Tick(ctx)

	if first.Delivered != 2 || first.Due != 2 || first.Err != nil {
		t.Errorf("first tick = %+v", first)
	}
	if second.Due != 0 || second.Delivered != 0 {
		t.Errorf("second tick = %+v", second)
	}
	if got := n.texts(); len(got) != 2 || got[0] != "overdue" || got[1] != "exactly now" {
		t.Errorf("sent = %v", got)
	}

	left, _ := store.Reminders(ctx, "alice")
	if len(left) != 1 || left[0].Text != "not yet" {
		t.Errorf("remaining = %+v", left)
	}
}

func TestTickFailedDeliveryDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := reminder.NewMemoryStore()
	seed(t, store, "alice", reminder.New(now, "for alice"))
	seed(t, store, "bob", reminder.New(now, "for bob"))
	seed(t, store, "carol", reminder.New(now, "for carol"))

	n := &fakeNotifier{fail: map[string]bool{"bob": true}}
	report := newScheduler(t, store, n, DefaultConfig()).Tick(ctx)

	if report.Delivered != 2 || report.Failed != 1 || report.Err != nil {
		t.Errorf("report = %+v", report)
	}
	if got := n.texts(); len(got) != 2 || got[0] != "for alice" || got[1] != "for carol" {
		t.Errorf("sent = %v", got)
	}

	// Removed before delivery, so bob's reminder is gone for good.
	if left, _ := store.Reminders(ctx, "bob"); len(left) != 0 {
		t.Errorf("bob still has %+v", left)
	}
}

func TestTickDeliverThenRemoveKeepsFailedReminder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := reminder.NewMemoryStore()
	seed(t, store, "bob", reminder.New(now, "retry me"))
	seed(t, store, "alice", reminder.New(now, "fine"))

	cfg := DefaultConfig()
	cfg.Order = DeliverThenRemove
	n := &fakeNotifier{fail: map[string]bool{"bob": true}}
	report := newScheduler(t, store, n, cfg).Tick(ctx)

	if report.Delivered != 1 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if left, _ := store.Reminders(ctx, "bob"); len(left) != 1 {
		t.Errorf("bob's reminder should be kept for retry, got %+v", left)
	}
	if left, _ := store.Reminders(ctx, "alice"); len(left) != 0 {
		t.Errorf("alice's delivered reminder should be removed, got %+v", left)
	}
}

func TestTickSurvivesPanicWhenNotHalting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := reminder.NewMemoryStore()
	seed(t, store, "alice", reminder.New(now, "boom"), reminder.New(now, "after boom"))
	seed(t, store, "bob", reminder.New(now, "for bob"))

	cfg := DefaultConfig()
	cfg.HaltOnError = false
	n := &fakeNotifier{panics: map[string]bool{"boom": true}}
	report := newScheduler(t, store, n, cfg).Tick(ctx)

	if report.Panicked != 1 {
		t.Errorf("Panicked = %d, want 1", report.Panicked)
	}
	if report.Delivered != 2 {
		t.Errorf("Delivered = %d, want 2 (report %+v)", report.Delivered, report)
	}
	if report.Err == nil || !strings.Contains(report.Err.Error(), "panic") {
		t.Errorf("Err = %v, want recorded panic", report.Err)
	}
}

func TestTickHaltsOnPanic(t *testing.T) {
	t.Parallel()

	store := reminder.NewMemoryStore()
	seed(t, store, "alice", reminder.New(now, "boom"))
	seed(t, store, "bob", reminder.New(now, "for bob"))

	n := &fakeNotifier{panics: map[string]bool{"boom": true}}
	report := newScheduler(t, store, n, DefaultConfig()).Tick(context.Background())

	if report.Err == nil {
		t.Fatal("expected tick error")
	}
	if report.Delivered != 0 {
		t.Errorf("Delivered = %d, want 0 after halting", report.Delivered)
	}
}

func TestTickDeliveryTimeout(t *testing.T) {
	t.Parallel()

	store := reminder.NewMemoryStore()
	seed(t, store, "alice", reminder.New(now, "slow"))

	cfg := DefaultConfig()
	cfg.DeliveryTimeout = 20 * time.Millisecond
	report := newScheduler(t, store, &fakeNotifier{block: true}, cfg).Tick(context.Background())

	if report.Failed != 1 || report.Err != nil {
		t.Errorf("report = %+v", report)
	}
}

// staleStore reports reminders that are no longer in the user's list, as
// happens when a user removes a reminder while a tick is running.
type staleStore struct {
	*reminder.MemoryStore
	snapshot map[string][]reminder.Reminder
}

func (s *staleStore) AllReminders(context.Context) (map[string][]reminder.Reminder, error) {
	return s.snapshot, nil
}

func TestTickSkipsReminderRemovedConcurrently(t *testing.T) {
	t.Parallel()

	store := &staleStore{
		MemoryStore: reminder.NewMemoryStore(),
		snapshot:    map[string][]reminder.Reminder{"alice": {reminder.New(now, "deleted by user")}},
	}
	n := &fakeNotifier{}
	report := newScheduler(t, store, n, DefaultConfig()).Tick(context.Background())

	if report.Skipped != 1 || report.Delivered != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(n.texts()) != 0 {
		t.Errorf("sent = %v", n.texts())
	}
}

type brokenStore struct {
	*reminder.MemoryStore
}

var errStoreDown = errors.New("store down")

func (brokenStore) AllReminders(context.Context) (map[string][]reminder.Reminder, error) {
	return nil, errStoreDown
}

func TestRunHaltsOnStoreError(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, brokenStore{reminder.NewMemoryStore()}, &fakeNotifier{}, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.Run(ctx)
	if !errors.Is(err, errStoreDown) {
		t.Errorf("Run error = %v, want errStoreDown", err)
	}
}

func TestRunContinuesOnStoreErrorWhenNotHalting(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HaltOnError = false
	s := newScheduler(t, brokenStore{reminder.NewMemoryStore()}, &fakeNotifier{}, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Errorf("Run error = %v, want nil after cancellation", err)
	}
}

func TestRunDeliversAndStopsOnCancel(t *testing.T) {
	t.Parallel()

	store := reminder.NewMemoryStore()
	seed(t, store, "alice", reminder.New(now, "hello"))

	n := &fakeNotifier{ch: make(chan sent, 1)}
	s := newScheduler(t, store, n, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case got := <-n.ch:
		if got.user != "alice" || got.text != "hello" {
			t.Errorf("sent %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reminder not delivered by the first tick")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	s := New(reminder.NewMemoryStore(), &fakeNotifier{}, Config{}, nil)
	cfg := s.Config()
	if cfg.Interval != 10*time.Second || cfg.DeliveryTimeout != 30*time.Second || cfg.Order != RemoveThenDeliver {
		t.Errorf("Config() = %+v", cfg)
	}
}
