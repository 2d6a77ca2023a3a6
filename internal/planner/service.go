// Package planner is the host around the allocator. It coordinates the
// store, the optional LLM, and the event bus. Both the CLI and the HTTP API
// use this package.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/scheduler"
	"github.com/javiermolinar/daybook/internal/task"
)

var (
	// ErrNoLLM is returned by features that need a configured LLM provider.
	ErrNoLLM = errors.New("no LLM provider configured")

	// ErrMaxRetriesExceeded is returned when all retry attempts fail validation.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded, validation still failing")

	// ErrEmptyMessage is returned when a chat message is blank.
	ErrEmptyMessage = errors.New("message cannot be empty")
)

const (
	chatHistoryLimit = 10
	chatTaskLimit    = 5

	// DefaultReminderLead is how far ahead task start reminders look.
	DefaultReminderLead = 5 * time.Minute
)

// Service implements the assistant operations.
type Service struct {
	store  task.Store
	llm    llm.Client // nil when no provider is configured
	bus    *events.Bus
	now    func() time.Time
	logger zerolog.Logger

	reminderLead time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReminderLead sets how far ahead TaskStartReminders looks.
func WithReminderLead(d time.Duration) Option {
	return func(s *Service) { s.reminderLead = d }
}

// New creates a Service. client and bus may be nil.
func New(store task.Store, client llm.Client, bus *events.Bus, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		llm:          client,
		bus:          bus,
		now:          time.Now,
		logger:       logger.With().Str("component", "planner").Logger(),
		reminderLead: DefaultReminderLead,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasLLM reports whether LLM-backed features are available.
func (s *Service) HasLLM() bool {
	return s.llm != nil
}

// Store returns the underlying store.
func (s *Service) Store() task.Store {
	return s.store
}

// Bus returns the event bus, which may be nil.
func (s *Service) Bus() *events.Bus {
	return s.bus
}

// Publish sends an event if a bus is attached.
func (s *Service) Publish(t events.EventType, payload events.Payload) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(t, payload)
}

// workWindow returns the preferences and their window. A window ending at
// 24:00 is cut to 23:59 so that every assigned end is a valid HH:MM.
func (s *Service) workWindow(ctx context.Context) (task.Preferences, scheduler.Window, error) {
	prefs, err := s.store.GetPreferences(ctx)
	if err != nil {
		return task.Preferences{}, scheduler.Window{}, err
	}
	w, err := prefs.Window()
	if err != nil {
		return task.Preferences{}, scheduler.Window{}, err
	}
	if w.End >= scheduler.MinutesPerDay {
		w.End = scheduler.MinutesPerDay - 1
	}
	return prefs, w, nil
}

// dayContext loads what occupies date before anything new is placed: the
// fixed schedules recurring on its weekday and the tasks already assigned to it.
func (s *Service) dayContext(ctx context.Context, date time.Time) ([]*task.FixedSchedule, []*task.Task, error) {
	fixed, err := s.store.ListFixedByWeekday(ctx, date.Weekday())
	if err != nil {
		return nil, nil, err
	}
	booked, err := s.store.ListTasks(ctx, task.Filter{Date: &date})
	if err != nil {
		return nil, nil, err
	}
	return fixed, booked, nil
}

// unscheduledPending returns pending tasks without a slot, priority first.
func (s *Service) unscheduledPending(ctx context.Context) ([]*task.Task, error) {
	return s.store.ListTasks(ctx, task.Filter{Status: task.StatusPending, UnscheduledOnly: true})
}
