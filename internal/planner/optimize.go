package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/task"
	"github.com/javiermolinar/daybook/internal/telemetry"
)

// OptimizeResult is the outcome of Optimize.
type OptimizeResult struct {
	Date     time.Time
	Slots    []llm.ProposedSlot // accepted slots ordered by start
	Attempts int

	// ValidationErrors holds the problems of the last proposal when every
	// attempt was rejected.
	ValidationErrors []ValidationError
}

// Optimize asks the LLM to place the pending unscheduled tasks on date.
// The reply is validated like any untrusted input; rejected proposals are
// sent back with the problems found, up to maxRetries more times. When
// every attempt fails, the result carries the last validation errors and the
// returned error wraps ErrMaxRetriesExceeded. Nothing is persisted unless a
// proposal passes.
func (s *Service) Optimize(ctx context.Context, date time.Time, maxRetries int) (*OptimizeResult, error) {
	if s.llm == nil {
		return nil, ErrNoLLM
	}
	date = dateutil.TruncateToDay(date)
	result := &OptimizeResult{Date: date}

	prefs, window, err := s.workWindow(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	pending, err := s.unscheduledPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching pending tasks: %w", err)
	}
	if len(pending) == 0 {
		return result, nil
	}
	fixed, booked, err := s.dayContext(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("loading day: %w", err)
	}

	validator, err := NewValidator(date, s.now(), window, pending, fixed, booked)
	if err != nil {
		return nil, err
	}

	messages := llm.OptimizeMessages(llm.OptimizeRequest{
		Date:        date,
		Preferences: prefs,
		Fixed:       fixed,
		Booked:      booked,
		Tasks:       pending,
	})

	var last ValidationResult
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result.Attempts = attempt + 1

		reply, err := s.llm.Chat(ctx, messages)
		if err != nil {
			telemetry.OptimizerAttemptsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("LLM optimize (attempt %d): %w", attempt+1, err)
		}

		slots, err := llm.ParseSlots(reply)
		if err != nil {
			last = ValidationResult{Errors: []ValidationError{{
				Index:   -1,
				Field:   "json",
				Message: "reply is not a JSON array of {id, scheduled_start, scheduled_end, reason}",
			}}}
		} else {
			last = validator.Validate(slots)
		}

		if last.Valid {
			telemetry.OptimizerAttemptsTotal.WithLabelValues("valid").Inc()
			sort.SliceStable(slots, func(i, j int) bool {
				return slots[i].ScheduledStart < slots[j].ScheduledStart
			})
			result.Slots = slots
			if err := s.persistSlots(ctx, date, slots); err != nil {
				return nil, err
			}
			return result, nil
		}

		telemetry.OptimizerAttemptsTotal.WithLabelValues("invalid").Inc()
		s.logger.Debug().
			Int("attempt", attempt+1).
			Int("errors", len(last.Errors)).
			Msg("optimizer proposal rejected")

		if attempt < maxRetries {
			messages = llm.FeedbackMessages(messages, reply, last.FormatErrors())
		}
	}

	result.ValidationErrors = last.Errors
	return result, fmt.Errorf("%w after %d attempts", ErrMaxRetriesExceeded, result.Attempts)
}

func (s *Service) persistSlots(ctx context.Context, date time.Time, slots []llm.ProposedSlot) error {
	if len(slots) == 0 {
		return nil
	}
	updates := make([]task.TimeUpdate, len(slots))
	for i, sl := range slots {
		updates[i] = task.TimeUpdate{ID: sl.ID, Start: sl.ScheduledStart, End: sl.ScheduledEnd}
	}
	if err := s.store.ApplySchedule(ctx, date, updates); err != nil {
		return fmt.Errorf("saving schedule: %w", err)
	}

	s.logger.Info().
		Str("date", dateutil.FormatDate(date)).
		Int("scheduled", len(slots)).
		Msg("optimized schedule")

	s.Publish(events.EventScheduleUpdated, events.Payload{
		"date":      dateutil.FormatDate(date),
		"source":    "optimize",
		"scheduled": len(slots),
	})
	return nil
}
