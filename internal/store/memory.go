package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the Store interface.
// Lookups are ordered the same way as PostgresStore.
// This implementation is suitable for development, testing, or single-instance deployments.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[int64]User
	campaigns     []Campaign
	segments      []Segment
	emails        []Email
	notifications []Notification
	exports       []ExportScheduler
	now           func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[int64]User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Seed loads fixtures into the store, appending to existing data.
func (m *MemoryStore) Seed(f Fixtures) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range f.Users {
		m.users[u.ID] = u
	}
	m.campaigns = append(m.campaigns, f.Campaigns...)
	m.segments = append(m.segments, f.Segments...)
	m.emails = append(m.emails, f.Emails...)
}

// GetUser retrieves a user by ID.
func (m *MemoryStore) GetUser(ctx context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// PublishedCampaigns returns published campaigns ordered by name.
func (m *MemoryStore) PublishedCampaigns(ctx context.Context) ([]Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		if c.Published {
			result = append(result, c)
		}
	}
	slices.SortStableFunc(result, func(a, b Campaign) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

// UserSegments returns published segments that are global or owned by userID.
func (m *MemoryStore) UserSegments(ctx context.Context, userID int64) ([]Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Segment, 0, len(m.segments))
	for _, s := range m.segments {
		if s.Published && (s.Global || s.CreatedBy == userID) {
			result = append(result, s)
		}
	}
	slices.SortStableFunc(result, func(a, b Segment) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

// EmailLookup returns published emails whose name starts with filter,
// case-insensitively, ordered by language then name.
func (m *MemoryStore) EmailLookup(ctx context.Context, filter string, limit, start int) ([]Email, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := strings.ToLower(filter)
	result := make([]Email, 0, len(m.emails))
	for _, e := range m.emails {
		if e.Published && strings.HasPrefix(strings.ToLower(e.Name), prefix) {
			result = append(result, e)
		}
	}
	slices.SortStableFunc(result, func(a, b Email) int {
		if c := strings.Compare(a.Language, b.Language); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	if start > 0 {
		if start >= len(result) {
			return []Email{}, nil
		}
		result = result[start:]
	}
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// AddNotification stores n in memory.
func (m *MemoryStore) AddNotification(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.DateAdded.IsZero() {
		n.DateAdded = m.now()
	}
	m.notifications = append(m.notifications, n)
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (m *MemoryStore) ListNotifications(ctx context.Context, userID int64) ([]Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Notification, 0)
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	slices.Reverse(result)
	return result, nil
}

// SaveExportScheduler records s.
func (m *MemoryStore) SaveExportScheduler(ctx context.Context, s *ExportScheduler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports = append(m.exports, *s)
	return nil
}

// ExportSchedulers returns every recorded export, oldest first.
func (m *MemoryStore) ExportSchedulers() []ExportScheduler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.exports)
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
