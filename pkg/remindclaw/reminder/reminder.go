// Package reminder defines the reminder model and the per-user storage
// contract shared by the command surface and the scheduler.
package reminder

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"
)

// Reminder is a pending notification. Two reminders with the same Due and
// Text are the same reminder.
type Reminder struct {
	// Due is the delivery instant, always UTC.
	Due time.Time

	// Text is the message delivered to the user.
	Text string
}

// New builds a Reminder normalized to UTC at microsecond precision, which is
// what the stores can round-trip.
func New(due time.Time, text string) Reminder {
	return Reminder{Due: due.UTC().Truncate(time.Microsecond), Text: text}
}

// FromUnix converts persisted POSIX seconds back into a Reminder.
func FromUnix(sec float64, text string) Reminder {
	whole := math.Floor(sec)
	micros := math.Round((sec - whole) * 1e6)
	return Reminder{
		Due:  time.Unix(int64(whole), int64(micros)*int64(time.Microsecond)).UTC(),
		Text: text,
	}
}

// Unix returns Due as fractional POSIX seconds.
func (r Reminder) Unix() float64 {
	return float64(r.Due.UnixMicro()) / 1e6
}

// Equal reports whether r and o identify the same reminder.
func (r Reminder) Equal(o Reminder) bool {
	return r.Text == o.Text && r.Due.Equal(o.Due)
}

// Profile holds per-user settings. An empty Timezone means the user never
// configured one and UTC is assumed.
type Profile struct {
	UserID   string
	Timezone string
}

// UpdateFunc receives the user's current reminders and returns the list to
// store. Returning an error aborts the update and leaves storage unchanged.
type UpdateFunc func(list []Reminder) ([]Reminder, error)

// Store persists reminders and timezones per user. Implementations must be
// safe for concurrent use; UpdateReminders is atomic for a single user.
type Store interface {
	Reminders(ctx context.Context, userID string) ([]Reminder, error)
	SetReminders(ctx context.Context, userID string, list []Reminder) error
	UpdateReminders(ctx context.Context, userID string, fn UpdateFunc) error
	Timezone(ctx context.Context, userID string) (string, error)
	SetTimezone(ctx context.Context, userID, tz string) error
	AllReminders(ctx context.Context) (map[string][]Reminder, error)
}

// Sorted returns a copy of list ordered by Due, then Text.
func Sorted(list []Reminder) []Reminder {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b Reminder) int {
		if c := a.Due.Compare(b.Due); c != 0 {
			return c
		}
		return cmp.Compare(a.Text, b.Text)
	})
	return out
}

// RemoveAt sorts list and removes the reminder at 1-based position n.
// ok is false when n is out of range, in which case rest is the sorted list.
func RemoveAt(list []Reminder, n int) (removed Reminder, rest []Reminder, ok bool) {
	sorted := Sorted(list)
	if n < 1 || n > len(sorted) {
		return Reminder{}, sorted, false
	}
	removed = sorted[n-1]
	return removed, slices.Delete(sorted, n-1, n), true
}

// Remove deletes the first reminder equal to r. ok is false when none matched.
func Remove(list []Reminder, r Reminder) (rest []Reminder, ok bool) {
	i := slices.IndexFunc(list, r.Equal)
	if i < 0 {
		return list, false
	}
	return slices.Delete(slices.Clone(list), i, i+1), true
}

// Due splits list into reminders due at now and those still pending.
func Due(list []Reminder, now time.Time) (due, pending []Reminder) {
	for _, r := range list {
		if r.Due.After(now) {
			pending = append(pending, r)
		} else {
			due = append(due, r)
		}
	}
	return due, pending
}
