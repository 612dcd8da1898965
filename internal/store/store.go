package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations the segment filter service needs.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// GetUser retrieves a user by ID. Returns ErrNotFound if missing.
	GetUser(ctx context.Context, id int64) (*User, error)

	// PublishedCampaigns returns published campaigns ordered by name.
	PublishedCampaigns(ctx context.Context) ([]Campaign, error)

	// UserSegments returns published segments visible to userID: global
	// ones plus those the user created.
	UserSegments(ctx context.Context, userID int64) ([]Segment, error)

	// EmailLookup returns published emails whose name starts with filter.
	// limit 0 means no limit; start is the offset.
	EmailLookup(ctx context.Context, filter string, limit, start int) ([]Email, error)

	// AddNotification stores a notification, assigning ID and DateAdded
	// when they are empty.
	AddNotification(ctx context.Context, n Notification) error

	// ListNotifications returns a user's notifications, newest first.
	ListNotifications(ctx context.Context, userID int64) ([]Notification, error)

	// SaveExportScheduler records a scheduled contact export.
	SaveExportScheduler(ctx context.Context, s *ExportScheduler) error

	// Close releases any resources held by the store.
	Close() error
}

// User is an application user who can own segments and receive notifications.
type User struct {
	ID        int64  `json:"id" yaml:"id"`
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"firstName,omitempty" yaml:"first_name"`
	LastName  string `json:"lastName,omitempty" yaml:"last_name"`
}

// Campaign is a marketing campaign contacts can be filtered on.
type Campaign struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Published bool   `json:"published" yaml:"published"`
}

// Segment is a saved, filterable grouping of contacts.
type Segment struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Published bool   `json:"published" yaml:"published"`
	Global    bool   `json:"global" yaml:"global"`
	CreatedBy int64  `json:"createdBy" yaml:"created_by"`
}

// Email is an email template contacts may have received.
type Email struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Language  string `json:"language" yaml:"language"`
	Published bool   `json:"published" yaml:"published"`
}

// Notification is a message shown to a user in the application.
type Notification struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Type      string    `json:"type,omitempty"`
	Header    string    `json:"header,omitempty"`
	IconClass string    `json:"iconClass,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	DateAdded time.Time `json:"dateAdded"`
}

// ExportScheduler is a contact export queued on behalf of a user.
type ExportScheduler struct {
	ID          string         `json:"id"`
	User        *User          `json:"user"`
	Data        map[string]any `json:"data,omitempty"`
	ScheduledAt time.Time      `json:"scheduledAt"`
}
