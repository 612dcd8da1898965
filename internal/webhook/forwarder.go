// Package webhook posts scheduled contact exports to an external HTTP
// endpoint. Deliveries are queued and sent by a background worker, so a
// slow receiver never holds up the request that scheduled the export.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/segmentfilter/internal/events"
)

const (
	// queueSize is the buffer size for the delivery queue
	queueSize = 1000

	// maxResponseBodySize limits how much of a failed response is logged
	maxResponseBodySize = 1024

	SignatureHeader = "X-Segmentfilter-Signature"
	EventHeader     = "X-Segmentfilter-Event"
	DeliveryHeader  = "X-Segmentfilter-Delivery"
)

// Options configures a Forwarder.
type Options struct {
	URL        string
	Secret     string
	MaxRetries int
	Timeout    time.Duration
	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration
	Logger  zerolog.Logger
}

// Forwarder delivers contact.export_scheduled events to one endpoint.
type Forwarder struct {
	opts   Options
	client *http.Client
	queue  chan events.ExportScheduledMessage
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewForwarder creates a forwarder and starts its worker.
func NewForwarder(opts Options) *Forwarder {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	f := &Forwarder{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		queue:  make(chan events.ExportScheduledMessage, queueSize),
		done:   make(chan struct{}),
	}
	go f.worker()
	return f
}

// SubscribedEvents runs the forwarder after every in-process listener.
func (f *Forwarder) SubscribedEvents() map[string][]events.Registration {
	return map[string][]events.Registration{
		events.ContactExportScheduled: {{Listener: events.Handle(f.onExportScheduled), Priority: -20}},
	}
}

func (f *Forwarder) onExportScheduled(_ context.Context, e *events.ContactExportScheduledEvent) error {
	s := e.Scheduler()
	if s == nil || s.User == nil {
		return fmt.Errorf("webhook: missing user")
	}
	f.Enqueue(events.NewExportScheduledMessage(s))
	return nil
}

// Enqueue queues msg for delivery. It never blocks; when the queue is full
// the message is dropped and logged.
func (f *Forwarder) Enqueue(msg events.ExportScheduledMessage) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return false
	}
	select {
	case f.queue <- msg:
		return true
	default:
		f.opts.Logger.Error().
			Str("export_id", msg.ExportID).
			Int("queue_size", queueSize).
			Msg("webhook queue full, dropping delivery")
		return false
	}
}

// Close stops accepting deliveries and waits for queued ones to finish.
// It is safe to call more than once.
func (f *Forwarder) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()
	<-f.done
	return nil
}

func (f *Forwarder) worker() {
	defer close(f.done)
	for msg := range f.queue {
		f.deliverWithRetry(context.Background(), msg)
	}
}

// deliverWithRetry posts msg, retrying with exponential backoff. It reports
// whether any attempt succeeded.
func (f *Forwarder) deliverWithRetry(ctx context.Context, msg events.ExportScheduledMessage) bool {
	log := f.opts.Logger.With().Str("export_id", msg.ExportID).Str("url", f.opts.URL).Logger()

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("encode webhook payload")
		return false
	}
	signature := Sign(payload, f.opts.Secret)
	deliveryID := uuid.NewString()

	backoff := f.opts.Backoff
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		start := time.Now()
		status, body, err := f.post(ctx, payload, signature, deliveryID)
		if err == nil && status >= 200 && status < 300 {
			log.Debug().Int("status", status).Dur("duration", time.Since(start)).Int("attempt", attempt+1).Msg("webhook delivered")
			return true
		}

		ev := log.Warn()
		if attempt == f.opts.MaxRetries {
			ev = log.Error()
		}
		ev.Err(err).Int("status", status).Str("response", body).
			Int("attempt", attempt+1).Int("max_attempts", f.opts.MaxRetries+1).
			Msg("webhook delivery failed")

		if attempt < f.opts.MaxRetries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return false
}

func (f *Forwarder) post(ctx context.Context, payload []byte, signature, deliveryID string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.opts.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)
	req.Header.Set(EventHeader, events.ContactExportScheduled)
	req.Header.Set(DeliveryHeader, deliveryID)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, "", nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	return resp.StatusCode, string(b), nil
}

// Sign returns the signature header value for payload: "sha256=" followed by
// the hex HMAC-SHA256 of payload keyed with secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is Sign(payload, secret).
func Verify(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(payload, secret)))
}
