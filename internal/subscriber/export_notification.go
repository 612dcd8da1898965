package subscriber

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/segmentfilter/internal/events"
	"github.com/TimurManjosov/segmentfilter/internal/store"
)

// MessageExportBeingPrepared is the translation key of the notice sent when
// an export is scheduled. It takes %user_email%.
const MessageExportBeingPrepared = "contact.export.being_prepared"

// NotificationSink stores a notification for a user.
type NotificationSink interface {
	AddNotification(ctx context.Context, n store.Notification) error
}

// ExportNotificationSubscriber tells the user who scheduled a contact export
// that it is being prepared.
type ExportNotificationSubscriber struct {
	sink NotificationSink
	tr   Translator
	log  zerolog.Logger
}

func NewExportNotificationSubscriber(sink NotificationSink, tr Translator, log zerolog.Logger) *ExportNotificationSubscriber {
	return &ExportNotificationSubscriber{sink: sink, tr: tr, log: log}
}

func (s *ExportNotificationSubscriber) SubscribedEvents() map[string][]events.Registration {
	return map[string][]events.Registration{
		events.ContactExportScheduled: {{Listener: events.Handle(s.OnContactExportScheduled)}},
	}
}

// OnContactExportScheduled adds the notification. A scheduler without a
// user cannot be produced by the export service, so it panics.
func (s *ExportNotificationSubscriber) OnContactExportScheduled(ctx context.Context, e *events.ContactExportScheduledEvent) error {
	sched := e.Scheduler()
	if sched == nil || sched.User == nil {
		panic("subscriber: contact export scheduled without a user")
	}
	user := sched.User

	msg := s.tr.Trans(MessageExportBeingPrepared, map[string]string{"%user_email%": user.Email})
	if err := s.sink.AddNotification(ctx, store.Notification{UserID: user.ID, Message: msg}); err != nil {
		return fmt.Errorf("notify user %d: %w", user.ID, err)
	}

	s.log.Info().
		Int64("user_id", user.ID).
		Str("export_id", sched.ID).
		Msg("export notification added")
	return nil
}
