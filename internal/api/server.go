package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/TimurManjosov/segmentfilter/internal/events"
	"github.com/TimurManjosov/segmentfilter/internal/export"
	"github.com/TimurManjosov/segmentfilter/internal/segment"
	"github.com/TimurManjosov/segmentfilter/internal/store"
	"github.com/TimurManjosov/segmentfilter/internal/telemetry"
	"github.com/TimurManjosov/segmentfilter/internal/translation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Store          store.Store
	Dispatcher     *events.Dispatcher
	Translator     *translation.Translator
	AdminAPIKey    string
	RateLimitPerIP int // requests per minute; 0 disables limiting
	Logger         zerolog.Logger
}

type Server struct {
	store       store.Store
	dispatcher  *events.Dispatcher
	exports     *export.Scheduler
	tr          *translation.Translator
	adminAPIKey string
	rateLimit   int
	log         zerolog.Logger
}

func NewServer(opts Options) *Server {
	return &Server{
		store:       opts.Store,
		dispatcher:  opts.Dispatcher,
		exports:     export.NewScheduler(opts.Store, opts.Dispatcher, opts.Logger),
		tr:          opts.Translator,
		adminAPIKey: opts.AdminAPIKey,
		rateLimit:   opts.RateLimitPerIP,
		log:         opts.Logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(telemetry.Middleware)
	if s.rateLimit > 0 {
		r.Use(httprate.Limit(s.rateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				RateLimitedError(w, r, "rate limit exceeded, retry later")
			}),
		))
	}

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/field-types", s.handleListFieldTypes)
		r.Get("/field-types/{type}/operators", s.handleListOperators)
		r.Get("/choices", s.handleChoices)
		r.Get("/choice-fields", s.handleChoiceFields)
		r.Post("/filters/control", s.handleFilterControl)
		r.Get("/users/{id}/notifications", s.handleListNotifications)

		// admin (protected)
		r.Post("/exports", s.authAdmin(s.handleScheduleExport))
	})

	return r
}

// segments returns a request-scoped segment service for the calling user.
func (s *Server) segments(userID int64) *segment.Service {
	return segment.NewService(s.dispatcher, userID)
}

// translator picks the locale from ?locale= or Accept-Language.
func (s *Server) translator(r *http.Request) *translation.Translator {
	if l := r.URL.Query().Get("locale"); l != "" {
		return s.tr.WithLocale(l)
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil {
		return s.tr
	}
	for _, tag := range tags {
		base, _ := tag.Base()
		if tr := s.tr.WithLocale(base.String()); tr.Locale() == base.String() {
			return tr
		}
	}
	return s.tr
}

// userID reads the acting user from ?user= or the X-User-ID header.
// Anonymous requests act as user 0.
func userID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("user")
	if raw == "" {
		raw = r.Header.Get("X-User-ID")
	}
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, errors.New("user must be a non-negative integer")
	}
	return id, nil
}

// ---- middleware & helpers ----

func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		if got == "" {
			UnauthorizedError(w, r, "missing bearer token")
			return
		}
		// constant-time compare
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.adminAPIKey)) != 1 {
			ForbiddenError(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a size-limited JSON body into v, writing the error
// response itself when it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError(w, r, "request body exceeds 1MB")
			return false
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
