package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/TimurManjosov/segmentfilter/internal/store"
)

// DefaultSubject is the NATS subject export notices are published on.
const DefaultSubject = "segmentfilter.contact.export_scheduled"

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to NATS with automatic reconnection support.
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	defaults := []nats.Option{
		nats.Name("segmentfilter"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.conn.Publish(subject, data)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// Publisher sends an event to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

// ExportScheduledMessage is the wire form of a scheduled export.
type ExportScheduledMessage struct {
	Event       string         `json:"event"`
	ExportID    string         `json:"exportId"`
	UserID      int64          `json:"userId"`
	UserEmail   string         `json:"userEmail"`
	Data        map[string]any `json:"data,omitempty"`
	ScheduledAt time.Time      `json:"scheduledAt"`
}

// NATSForwarder republishes scheduled exports so other services can pick
// them up. It runs after the in-process subscribers.
type NATSForwarder struct {
	pub     Publisher
	subject string
}

func NewNATSForwarder(pub Publisher, subject string) *NATSForwarder {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSForwarder{pub: pub, subject: subject}
}

func (f *NATSForwarder) SubscribedEvents() map[string][]Registration {
	return map[string][]Registration{
		ContactExportScheduled: {{Listener: Handle(f.onExportScheduled), Priority: -10}},
	}
}

func (f *NATSForwarder) onExportScheduled(ctx context.Context, e *ContactExportScheduledEvent) error {
	s := e.Scheduler()
	if s == nil || s.User == nil {
		return fmt.Errorf("forward export: missing user")
	}
	return f.pub.Publish(ctx, f.subject, NewExportScheduledMessage(s))
}

// NewExportScheduledMessage builds the wire form of s. s.User must be set.
func NewExportScheduledMessage(s *store.ExportScheduler) ExportScheduledMessage {
	return ExportScheduledMessage{
		Event:       ContactExportScheduled,
		ExportID:    s.ID,
		UserID:      s.User.ID,
		UserEmail:   s.User.Email,
		Data:        s.Data,
		ScheduledAt: s.ScheduledAt,
	}
}
