// Package scheduler delivers due reminders. A robfig/cron entry scans the
// store at a fixed interval; each due reminder is removed from its owner's
// list and sent through the Notifier.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/reminder"
)

// Notifier sends a private message to a user.
type Notifier interface {
	SendDirect(ctx context.Context, userID, text string) error
}

// Order controls whether a reminder leaves the store before or after it is
// delivered.
type Order string

const (
	// RemoveThenDeliver never delivers twice; a failed delivery is lost.
	RemoveThenDeliver Order = "remove-then-deliver"

	// DeliverThenRemove retries failed deliveries on the next tick; a crash
	// between the two steps delivers twice.
	DeliverThenRemove Order = "deliver-then-remove"
)

// Config tunes the delivery loop.
type Config struct {
	// Interval between scans (default: 10s, minimum 1s).
	Interval time.Duration `yaml:"interval"`

	// DeliveryTimeout bounds a single SendDirect call (default: 30s).
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`

	// HaltOnError stops Run on a store failure or a panic while handling a
	// reminder. When false the error is logged and the next tick proceeds.
	HaltOnError bool `yaml:"halt_on_error"`

	// Order is RemoveThenDeliver (default) or DeliverThenRemove.
	Order Order `yaml:"order"`
}

// DefaultConfig returns the default loop configuration.
func DefaultConfig() Config {
	return Config{
		Interval:        10 * time.Second,
		DeliveryTimeout: 30 * time.Second,
		HaltOnError:     true,
		Order:           RemoveThenDeliver,
	}
}

// TickReport summarizes one scan.
type TickReport struct {
	Users     int
	Due       int
	Delivered int
	Failed    int
	Panicked  int

	// Skipped counts due reminders that were gone by the time they were
	// removed, usually because the user deleted them mid-tick.
	Skipped int

	// Err holds store failures and recovered panics. Delivery failures are
	// counted in Failed and never set Err.
	Err error
}

// Scheduler scans the store and delivers due reminders.
type Scheduler struct {
	store    reminder.Store
	notifier Notifier
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Scheduler. Zero Interval, DeliveryTimeout and Order fields
// take their defaults.
func New(store reminder.Store, notifier Notifier, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = def.DeliveryTimeout
	}
	if cfg.Order == "" {
		cfg.Order = def.Order
	}

	return &Scheduler{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With("component", "scheduler"),
		now:      time.Now,
	}
}

// SetClock replaces the time source used to decide what is due.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Run scans immediately and then every Interval until ctx is cancelled or,
// with HaltOnError, a tick fails. It returns nil on cancellation and the
// tick error otherwise.
func (s *Scheduler) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	halt := make(chan error, 1)
	logger := cronLogger{s.logger}

	job := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(func() {
		report := s.Tick(runCtx)
		if report.Err == nil {
			return
		}
		if runCtx.Err() != nil {
			return
		}
		if s.cfg.HaltOnError {
			select {
			case halt <- report.Err:
			default:
			}
			return
		}
		s.logger.Error("tick failed, continuing", "error", report.Err)
	}))

	c := cron.New(cron.WithLogger(logger))
	c.Schedule(cron.Every(s.cfg.Interval), job)

	s.logger.Info("scheduler started",
		"interval", s.cfg.Interval,
		"order", s.cfg.Order,
		"halt_on_error", s.cfg.HaltOnError,
	)

	job.Run()
	c.Start()

	var err error
	select {
	case <-ctx.Done():
	case err = <-halt:
		s.logger.Error("scheduler halted", "error", err)
	}

	cancel()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return err
}

// Tick performs one scan of the store.
func (s *Scheduler) Tick(ctx context.Context) TickReport {
	var report TickReport

	all, err := s.store.AllReminders(ctx)
	if err != nil {
		report.Err = fmt.Errorf("scan reminders: %w", err)
		return report
	}
	report.Users = len(all)

	now := s.now()
	users := make([]string, 0, len(all))
	for user := range all {
		users = append(users, user)
	}
	slices.Sort(users)

	for _, user := range users {
		due, _ := reminder.Due(all[user], now)
		for _, r := range due {
			if ctx.Err() != nil {
				return report
			}
			report.Due++
			if err := s.handle(ctx, user, r, &report); err != nil {
				report.Err = errors.Join(report.Err, err)
				if s.cfg.HaltOnError {
					return report
				}
				s.logger.Error("reminder not processed", "user", user, "due", r.Due, "error", err)
			}
		}
	}

	if report.Due > 0 {
		s.logger.Info("tick complete",
			"due", report.Due,
			"delivered", report.Delivered,
			"failed", report.Failed,
			"skipped", report.Skipped,
		)
	}
	return report
}

// handle removes and delivers one reminder in the configured order. Returned
// errors are store failures or recovered panics.
func (s *Scheduler) handle(ctx context.Context, user string, r reminder.Reminder, report *TickReport) (err error) {
	defer func() {
		if p := recover(); p != nil {
			report.Panicked++
			s.logger.Error("reminder handling panicked", "user", user, "due", r.Due, "panic", p)
			err = fmt.Errorf("panic handling reminder for %s: %v", user, p)
		}
	}()

	if s.cfg.Order == DeliverThenRemove {
		if !s.deliver(ctx, user, r, report) {
			return nil
		}
		_, rerr := s.remove(ctx, user, r)
		return rerr
	}

	removed, err := s.remove(ctx, user, r)
	if err != nil {
		return err
	}
	if !removed {
		report.Skipped++
		s.logger.Debug("reminder already gone", "user", user, "due", r.Due)
		return nil
	}
	s.deliver(ctx, user, r, report)
	return nil
}

func (s *Scheduler) remove(ctx context.Context, user string, r reminder.Reminder) (bool, error) {
	var found bool
	err := s.store.UpdateReminders(ctx, user, func(list []reminder.Reminder) ([]reminder.Reminder, error) {
		rest, ok := reminder.Remove(list, r)
		found = ok
		return rest, nil
	})
	if err != nil {
		return false, fmt.Errorf("remove reminder for %s: %w", user, err)
	}
	return found, nil
}

func (s *Scheduler) deliver(ctx context.Context, user string, r reminder.Reminder, report *TickReport) bool {
	dctx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
	defer cancel()

	if err := s.notifier.SendDirect(dctx, user, r.Text); err != nil {
		report.Failed++
		s.logger.Warn("reminder delivery failed", "user", user, "due", r.Due, "error", err)
		return false
	}
	report.Delivered++
	s.logger.Debug("reminder delivered", "user", user, "due", r.Due)
	return true
}
