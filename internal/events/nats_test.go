package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/TimurManjosov/segmentfilter/internal/store"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNATSForwarder_PublishesScheduledExport(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	sub, err := nc.SubscribeSync("exports.test")
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flushing: %v", err)
	}

	d := NewDispatcher()
	d.AddSubscriber(NewNATSForwarder(pub, "exports.test"))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &store.ExportScheduler{
		ID:          "exp-1",
		User:        &store.User{ID: 4, Email: "a@b.com"},
		Data:        map[string]any{"search": "is:mine"},
		ScheduledAt: at,
	}
	if err := d.Dispatch(context.Background(), ContactExportScheduled, NewContactExportScheduledEvent(s)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("waiting for message: %v", err)
	}

	var got ExportScheduledMessage
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	if got.ExportID != "exp-1" || got.UserID != 4 || got.UserEmail != "a@b.com" {
		t.Errorf("unexpected message: %+v", got)
	}
	if got.Event != ContactExportScheduled {
		t.Errorf("Expected event %q, got %q", ContactExportScheduled, got.Event)
	}
	if !got.ScheduledAt.Equal(at) {
		t.Errorf("Expected scheduledAt %v, got %v", at, got.ScheduledAt)
	}
}

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(ctx context.Context, subject string, event any) error {
	return p.err
}

func TestNATSForwarder_PublishErrorPropagates(t *testing.T) {
	boom := errors.New("nats down")
	d := NewDispatcher()
	d.AddSubscriber(NewNATSForwarder(failingPublisher{err: boom}, ""))

	s := &store.ExportScheduler{ID: "x", User: &store.User{ID: 1}}
	err := d.Dispatch(context.Background(), ContactExportScheduled, NewContactExportScheduledEvent(s))
	if !errors.Is(err, boom) {
		t.Errorf("Expected publish error, got %v", err)
	}
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", nats.MaxReconnects(0), nats.Timeout(200*time.Millisecond))
	if err == nil {
		t.Fatal("Expected connection error")
	}
}
