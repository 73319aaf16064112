package reminder

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is a Store kept in process memory. It backs tests and the
// local console when no database is configured.
type MemoryStore struct {
	mu        sync.Mutex
	reminders map[string][]Reminder
	timezones map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reminders: make(map[string][]Reminder),
		timezones: make(map[string]string),
	}
}

func (m *MemoryStore) Reminders(_ context.Context, userID string) ([]Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.reminders[userID]), nil
}

func (m *MemoryStore) SetReminders(_ context.Context, userID string, list []Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(userID, list)
	return nil
}

func (m *MemoryStore) UpdateReminders(_ context.Context, userID string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(slices.Clone(m.reminders[userID]))
	if err != nil {
		return err
	}
	m.set(userID, next)
	return nil
}

func (m *MemoryStore) Timezone(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timezones[userID], nil
}

func (m *MemoryStore) SetTimezone(_ context.Context, userID, tz string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timezones[userID] = tz
	return nil
}

func (m *MemoryStore) AllReminders(_ context.Context) (map[string][]Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]Reminder, len(m.reminders))
	for user, list := range m.reminders {
		out[user] = slices.Clone(list)
	}
	return out, nil
}

func (m *MemoryStore) set(userID string, list []Reminder) {
	if len(list) == 0 {
		delete(m.reminders, userID)
		return
	}
	m.reminders[userID] = slices.Clone(list)
}

var _ Store = (*MemoryStore)(nil)
