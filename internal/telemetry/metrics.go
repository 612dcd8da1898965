package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TimurManjosov/segmentfilter/internal/store"
)

const namespace = "segmentfilter"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	EventsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Events dispatched, by name and result",
		},
		[]string{"event", "result"},
	)
	NotificationsAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_added_total",
		Help:      "Notifications stored for users",
	})
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, EventsDispatched, NotificationsAdded)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		// the route pattern is only known once chi has routed the request
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveDispatch counts a dispatch. It has the shape of events.Observer.
func ObserveDispatch(name string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsDispatched.WithLabelValues(name, result).Inc()
}

// NotificationSink stores a notification for a user.
type NotificationSink interface {
	AddNotification(ctx context.Context, n store.Notification) error
}

type countingSink struct {
	NotificationSink
}

// CountNotifications wraps sink so every stored notification is counted.
func CountNotifications(sink NotificationSink) NotificationSink {
	return countingSink{sink}
}

func (c countingSink) AddNotification(ctx context.Context, n store.Notification) error {
	if err := c.NotificationSink.AddNotification(ctx, n); err != nil {
		return err
	}
	NotificationsAdded.Inc()
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
