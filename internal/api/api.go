// Package api exposes the assistant over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/planner"
	"github.com/javiermolinar/daybook/internal/scheduler"
	"github.com/javiermolinar/daybook/internal/task"
	"github.com/javiermolinar/daybook/internal/telemetry"
)

// errBadRequest marks malformed input that no domain error describes.
var errBadRequest = errors.New("bad request")

// Options configures the API.
type Options struct {
	RateLimit float64 // LLM-backed requests per second per client
	RateBurst int

	MaxRetries int // optimizer retries after the first proposal
}

// API holds the HTTP handlers.
type API struct {
	svc     *planner.Service
	store   task.Store
	bus     *events.Bus
	limiter *rateLimiter
	logger  zerolog.Logger
	now     func() time.Time

	maxRetries int
	keepAlive  time.Duration
}

// New creates an API on top of svc. Without a bus on svc, /events stays
// open but silent.
func New(svc *planner.Service, opts Options, logger zerolog.Logger) *API {
	bus := svc.Bus()
	if bus == nil {
		bus = events.NewBus()
	}
	return &API{
		svc:        svc,
		store:      svc.Store(),
		bus:        bus,
		limiter:    newRateLimiter(opts.RateLimit, opts.RateBurst),
		logger:     logger.With().Str("component", "api").Logger(),
		now:        time.Now,
		maxRetries: opts.MaxRetries,
		keepAlive:  25 * time.Second,
	}
}

// Handler returns the root router with middleware, the API routes and /metrics.
func (a *API) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(a.logger))
	router.Use(middleware.Recoverer)
	router.Use(telemetry.MetricsMiddleware)

	a.Routes(router)
	router.Handle("/metrics", telemetry.Handler())
	return router
}

// Routes mounts the /api/v1 routes on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", a.handleTasksList)
			r.Post("/", a.handleTasksCreate)
			r.With(a.limiter.middleware).Post("/parse", a.handleTasksParse)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.handleTasksGet)
				r.Put("/", a.handleTasksUpdate)
				r.Delete("/", a.handleTasksDelete)
				r.Post("/complete", a.handleTasksComplete)
			})
		})

		r.Route("/fixed", func(r chi.Router) {
			r.Get("/", a.handleFixedList)
			r.Post("/", a.handleFixedCreate)
			r.Delete("/{id}", a.handleFixedDelete)
		})

		r.Get("/preferences", a.handlePreferencesGet)
		r.Put("/preferences", a.handlePreferencesUpdate)

		r.Route("/schedule", func(r chi.Router) {
			r.Post("/auto", a.handleScheduleAuto)
			r.With(a.limiter.middleware).Post("/optimize", a.handleScheduleOptimize)
		})

		r.With(a.limiter.middleware).Post("/chat", a.handleChat)
		r.Get("/greetings/morning", a.handleGreetingMorning)
		r.Get("/greetings/sleep", a.handleGreetingSleep)
		r.Get("/reminders", a.handleReminders)
		r.Get("/summary", a.handleSummary)

		r.Get("/events", a.handleEvents)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"llm":    a.svc.HasLLM(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// fail maps err to a status code and writes it. Client errors carry the
// message; server errors are logged and hidden.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		a.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, status, code)
		return
	}
	writeJSON(w, status, map[string]string{"error": code, "message": err.Error()})
}

var validationErrors = []error{
	errBadRequest,
	task.ErrEmptyContent,
	task.ErrEmptyTitle,
	task.ErrInvalidCategory,
	task.ErrInvalidStatus,
	task.ErrEndBeforeStart,
	scheduler.ErrFormat,
	scheduler.ErrInvalidDuration,
	scheduler.ErrInvalidPriority,
	scheduler.ErrInvalidWindow,
	dateutil.ErrInvalidDateFormat,
	dateutil.ErrInvalidWeekday,
	planner.ErrEmptyMessage,
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, task.ErrTaskNotFound), errors.Is(err, task.ErrFixedNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, task.ErrTimeBlockOverlap):
		return http.StatusConflict, "overlap"
	case errors.Is(err, planner.ErrNoLLM):
		return http.StatusServiceUnavailable, "llm_unavailable"
	case errors.Is(err, planner.ErrMaxRetriesExceeded):
		return http.StatusUnprocessableEntity, "schedule_rejected"
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest, "invalid_request"
		}
	}
	return http.StatusInternalServerError, "internal_error"
}
