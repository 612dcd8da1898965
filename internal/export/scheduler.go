// Package export queues contact exports and announces them.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/segmentfilter/internal/events"
	"github.com/TimurManjosov/segmentfilter/internal/store"
)

// ErrUnknownUser is returned when the requesting user does not exist.
var ErrUnknownUser = errors.New("unknown user")

// Store is the persistence the scheduler needs.
type Store interface {
	GetUser(ctx context.Context, id int64) (*store.User, error)
	SaveExportScheduler(ctx context.Context, s *store.ExportScheduler) error
}

// Dispatcher delivers an event to its listeners.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, payload any) error
}

// Scheduler records export requests and dispatches contact.export_scheduled.
type Scheduler struct {
	store Store
	d     Dispatcher
	log   zerolog.Logger
	now   func() time.Time
}

func NewScheduler(s Store, d Dispatcher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		store: s,
		d:     d,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Schedule queues an export of the contacts matching data for userID.
// The export is saved before the event is dispatched; a listener error is
// returned but does not undo the save.
func (s *Scheduler) Schedule(ctx context.Context, userID int64, data map[string]any) (*store.ExportScheduler, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	sched := &store.ExportScheduler{
		ID:          uuid.NewString(),
		User:        user,
		Data:        data,
		ScheduledAt: s.now(),
	}
	if err := s.store.SaveExportScheduler(ctx, sched); err != nil {
		return nil, fmt.Errorf("save export: %w", err)
	}

	s.log.Info().
		Str("export_id", sched.ID).
		Int64("user_id", user.ID).
		Msg("contact export scheduled")

	if err := s.d.Dispatch(ctx, events.ContactExportScheduled, events.NewContactExportScheduledEvent(sched)); err != nil {
		return sched, err
	}
	return sched, nil
}
