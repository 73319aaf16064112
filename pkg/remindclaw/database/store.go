package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/database/backends"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/reminder"
)

// ReminderStore implements reminder.Store on a SQL backend. Each user's list
// is kept in insertion order; due instants are stored as UTC POSIX seconds.
type ReminderStore struct {
	db      *sql.DB
	dialect backends.Dialect
	logger  *slog.Logger
}

// NewReminderStore creates a store on an opened and migrated backend.
func NewReminderStore(b *Backend, logger *slog.Logger) *ReminderStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderStore{
		db:      b.DB,
		dialect: b.Dialect,
		logger:  logger.With("component", "reminder-store", "backend", b.Dialect.Name),
	}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Reminders returns userID's reminders in insertion order.
func (s *ReminderStore) Reminders(ctx context.Context, userID string) ([]reminder.Reminder, error) {
	list, err := s.readList(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("load reminders for %s: %w", userID, err)
	}
	return list, nil
}

// SetReminders replaces userID's reminders.
func (s *ReminderStore) SetReminders(ctx context.Context, userID string, list []reminder.Reminder) error {
	return s.UpdateReminders(ctx, userID, func([]reminder.Reminder) ([]reminder.Reminder, error) {
		return list, nil
	})
}

// UpdateReminders runs fn inside a transaction that holds the user's profile
// row (PostgreSQL) or the database write lock (SQLite), so concurrent updates
// for the same user apply one after the other.
func (s *ReminderStore) UpdateReminders(ctx context.Context, userID string, fn reminder.UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update for %s: %w", userID, err)
	}
	defer tx.Rollback()

	if err := s.lockUser(ctx, tx, userID); err != nil {
		return fmt.Errorf("lock user %s: %w", userID, err)
	}

	current, err := s.readList(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("load reminders for %s: %w", userID, err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if err := s.writeList(ctx, tx, userID, next); err != nil {
		return fmt.Errorf("save reminders for %s: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reminders for %s: %w", userID, err)
	}
	return nil
}

// Timezone returns the raw timezone token userID configured, or "".
func (s *ReminderStore) Timezone(ctx context.Context, userID string) (string, error) {
	var tz string
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind("SELECT timezone FROM user_profiles WHERE user_id = ?"), userID,
	).Scan(&tz)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load timezone for %s: %w", userID, err)
	}
	return tz, nil
}

// SetTimezone stores the timezone token for userID.
func (s *ReminderStore) SetTimezone(ctx context.Context, userID, tz string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(`
		INSERT INTO user_profiles (user_id, timezone) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET timezone = excluded.timezone`),
		userID, tz,
	)
	if err != nil {
		return fmt.Errorf("save timezone for %s: %w", userID, err)
	}
	return nil
}

// AllReminders returns every user's pending reminders.
func (s *ReminderStore) AllReminders(ctx context.Context) (map[string][]reminder.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id, due, text FROM reminders ORDER BY user_id, position")
	if err != nil {
		return nil, fmt.Errorf("scan reminders: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]reminder.Reminder)
	for rows.Next() {
		var (
			user string
			due  float64
			text string
		)
		if err := rows.Scan(&user, &due, &text); err != nil {
			return nil, fmt.Errorf("scan reminders: %w", err)
		}
		out[user] = append(out[user], reminder.FromUnix(due, text))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan reminders: %w", err)
	}
	return out, nil
}

func (s *ReminderStore) lockUser(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx,
		s.dialect.Rebind("INSERT INTO user_profiles (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING"), userID)
	if err != nil || !s.dialect.RowLocks {
		return err
	}

	var id string
	return tx.QueryRowContext(ctx,
		s.dialect.Rebind("SELECT user_id FROM user_profiles WHERE user_id = ? FOR UPDATE"), userID,
	).Scan(&id)
}

func (s *ReminderStore) readList(ctx context.Context, q queryer, userID string) ([]reminder.Reminder, error) {
	rows, err := q.QueryContext(ctx,
		s.dialect.Rebind("SELECT due, text FROM reminders WHERE user_id = ? ORDER BY position"), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []reminder.Reminder
	for rows.Next() {
		var (
			due  float64
			text string
		)
		if err := rows.Scan(&due, &text); err != nil {
			return nil, err
		}
		list = append(list, reminder.FromUnix(due, text))
	}
	return list, rows.Err()
}

func (s *ReminderStore) writeList(ctx context.Context, tx *sql.Tx, userID string, list []reminder.Reminder) error {
	if _, err := tx.ExecContext(ctx, s.dialect.Rebind("DELETE FROM reminders WHERE user_id = ?"), userID); err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.Rebind(
		"INSERT INTO reminders (id, user_id, position, due, text, created_at) VALUES (?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, r := range list {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), userID, i, r.Unix(), r.Text, now); err != nil {
			return err
		}
	}
	s.logger.Debug("reminders saved", "user", userID, "count", len(list))
	return nil
}

var _ reminder.Store = (*ReminderStore)(nil)
