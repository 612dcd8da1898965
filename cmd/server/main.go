package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/segmentfilter/internal/api"
	"github.com/TimurManjosov/segmentfilter/internal/config"
	"github.com/TimurManjosov/segmentfilter/internal/events"
	"github.com/TimurManjosov/segmentfilter/internal/logging"
	"github.com/TimurManjosov/segmentfilter/internal/store"
	"github.com/TimurManjosov/segmentfilter/internal/subscriber"
	"github.com/TimurManjosov/segmentfilter/internal/telemetry"
	"github.com/TimurManjosov/segmentfilter/internal/translation"
	"github.com/TimurManjosov/segmentfilter/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

// run owns every resource; returning instead of exiting lets the deferred
// closes flush the store, NATS and the webhook queue.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()
	st, err := store.NewStore(ctx, store.Options{
		Type:         cfg.StoreType,
		DSN:          cfg.DatabaseDSN,
		FixturesPath: cfg.FixturesPath,
		Migrate:      cfg.DatabaseMigrate,
	})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	tr, err := translation.New(cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("translation: %w", err)
	}

	telemetry.Init()
	dispatcher := events.NewDispatcher()
	dispatcher.Observe(telemetry.ObserveDispatch)
	dispatcher.AddSubscriber(subscriber.NewTypeOperatorSubscriber(st, tr, logging.Component(log, "type_operator")))
	dispatcher.AddSubscriber(subscriber.NewExportNotificationSubscriber(
		telemetry.CountNotifications(st), tr, logging.Component(log, "export_notification")))

	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer pub.Close()
		dispatcher.AddSubscriber(events.NewNATSForwarder(pub, cfg.NATSSubject))
		log.Info().Str("subject", cfg.NATSSubject).Msg("forwarding scheduled exports to NATS")
	}

	if cfg.WebhookURL != "" {
		hook := webhook.NewForwarder(webhook.Options{
			URL:        cfg.WebhookURL,
			Secret:     cfg.WebhookSecret,
			MaxRetries: cfg.WebhookRetries,
			Logger:     logging.Component(log, "webhook"),
		})
		defer hook.Close()
		dispatcher.AddSubscriber(hook)
	}

	srvAPI := api.NewServer(api.Options{
		Store:          st,
		Dispatcher:     dispatcher,
		Translator:     tr,
		AdminAPIKey:    cfg.AdminAPIKey,
		RateLimitPerIP: cfg.RateLimitPerIP,
		Logger:         logging.Component(log, "api"),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metrics := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           telemetry.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 2)
	go serve(log, "api", srv, errCh)
	go serve(log, "metrics", metrics, errCh)

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)
	runErr := wait(stop, errCh)

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metrics.Shutdown(ctxShut)
	log.Info().Msg("stopped")
	return runErr
}

// serve reports a listener failure on errCh. A clean shutdown sends nothing.
func serve(log zerolog.Logger, name string, srv *http.Server, errCh chan<- error) {
	log.Info().Str("server", name).Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("%s server: %w", name, err)
	}
}

// wait blocks until a signal arrives or a server fails.
func wait(stop <-chan os.Signal, errCh <-chan error) error {
	select {
	case <-stop:
		return nil
	case err := <-errCh:
		return err
	}
}
