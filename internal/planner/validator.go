package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/scheduler"
	"github.com/javiermolinar/daybook/internal/task"
)

// ValidationError represents a single problem with a proposed slot.
type ValidationError struct {
	Index   int    // position of the slot in the proposal, -1 for the whole reply
	Field   string // "json", "id", "scheduled_start", "scheduled_end", "window" or "overlap"
	Message string
}

// String returns a formatted error message.
func (e ValidationError) String() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("Entry %d: %s - %s", e.Index, e.Field, e.Message)
}

// ValidationResult contains the result of validating a proposal.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// FormatErrors returns the errors as a bullet list for LLM feedback.
func (r ValidationResult) FormatErrors() string {
	var b strings.Builder
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	return b.String()
}

type block struct {
	iv    scheduler.Interval
	label string
}

// Validator checks a schedule proposed by the LLM against one day.
type Validator struct {
	date       time.Time
	now        time.Time
	window     scheduler.Window
	candidates map[int64]*task.Task
	blocks     []block
}

// NewValidator builds a validator for date. candidates are the tasks the
// proposal may place; fixed and booked are what it must not overlap.
func NewValidator(date, now time.Time, window scheduler.Window, candidates []*task.Task,
	fixed []*task.FixedSchedule, booked []*task.Task) (*Validator, error) {
	v := &Validator{
		date:       dateutil.TruncateToDay(date),
		now:        now,
		window:     window,
		candidates: make(map[int64]*task.Task, len(candidates)),
	}
	for _, t := range candidates {
		v.candidates[t.ID] = t
	}
	for _, f := range fixed {
		if f.Weekday != v.date.Weekday() {
			continue
		}
		iv, err := f.Interval()
		if err != nil {
			return nil, fmt.Errorf("fixed schedule #%d %q: %w", f.ID, f.Title, err)
		}
		v.blocks = append(v.blocks, block{iv: iv, label: fmt.Sprintf("fixed schedule '%s'", f.Title)})
	}
	for _, t := range booked {
		iv, err := t.Interval()
		if err != nil {
			return nil, fmt.Errorf("task #%d %q: %w", t.ID, t.Content, err)
		}
		v.blocks = append(v.blocks, block{iv: iv, label: fmt.Sprintf("existing task '%s'", t.Content)})
	}
	return v, nil
}

// Validate checks each slot for:
//   - a known, pending task id used at most once
//   - HH:MM start and end with end after start
//   - a slot length equal to the task's estimated duration
//   - a start that is not already past when date is today
//   - containment in the work window
//   - no overlap with fixed schedules, booked tasks or other slots
func (v *Validator) Validate(slots []llm.ProposedSlot) ValidationResult {
	var result ValidationResult

	add := func(i int, field, format string, args ...any) {
		result.Errors = append(result.Errors, ValidationError{
			Index:   i,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}

	seen := make(map[int64]int)
	var (
		intervals []scheduler.Interval
		indexes   []int
	)

	for i, s := range slots {
		ok := true

		t, known := v.candidates[s.ID]
		switch {
		case !known:
			add(i, "id", "task id %d is not one of the tasks to place", s.ID)
			ok = false
		case !t.IsPending():
			add(i, "id", "task %d is already completed", s.ID)
			ok = false
		}
		if first, dup := seen[s.ID]; dup {
			add(i, "id", "task id %d is already placed by entry %d", s.ID, first)
			ok = false
		} else {
			seen[s.ID] = i
		}

		start, errStart := scheduler.TimeToMinutes(s.ScheduledStart)
		if errStart != nil {
			add(i, "scheduled_start", "'%s' is invalid (must be HH:MM format, 00:00-23:59)", s.ScheduledStart)
			ok = false
		}
		end, errEnd := scheduler.TimeToMinutes(s.ScheduledEnd)
		if errEnd != nil {
			add(i, "scheduled_end", "'%s' is invalid (must be HH:MM format, 00:00-23:59)", s.ScheduledEnd)
			ok = false
		}
		if errStart != nil || errEnd != nil {
			continue
		}
		if end <= start {
			add(i, "scheduled_end", "end time '%s' must be after start time '%s'", s.ScheduledEnd, s.ScheduledStart)
			continue
		}
		if known {
			if want := t.DurationMinutes(); end-start != want {
				add(i, "scheduled_end", "end time '%s' must be %d minutes after start time '%s' (the task's estimated duration)",
					s.ScheduledEnd, want, s.ScheduledStart)
			}
		}
		if v.isInPast(start) {
			add(i, "scheduled_start", "start time '%s' is in the past", s.ScheduledStart)
			ok = false
		}

		if ok {
			intervals = append(intervals, scheduler.Interval{Start: start, End: end})
			indexes = append(indexes, i)
		}
	}

	busy := make(scheduler.BusySet, 0, len(v.blocks))
	for _, b := range v.blocks {
		busy = append(busy, b.iv)
	}
	for _, c := range scheduler.CheckOverlaps(intervals, busy, v.window) {
		i := indexes[c.Index]
		switch c.Kind {
		case scheduler.ConflictOutsideWindow:
			add(i, "window", "%s is outside the work window %s", intervals[c.Index], c.With)
		case scheduler.ConflictBusy:
			add(i, "overlap", "%s overlaps with %s (%s)", intervals[c.Index], v.label(c.With), c.With)
		case scheduler.ConflictProposed:
			add(i, "overlap", "%s overlaps with entry %d (%s)", intervals[c.Index], indexes[c.WithIndex], c.With)
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (v *Validator) label(iv scheduler.Interval) string {
	for _, b := range v.blocks {
		if b.iv == iv {
			return b.label
		}
	}
	return "a busy block"
}

// isInPast reports whether a start minute on v.date has already passed.
func (v *Validator) isInPast(start int) bool {
	if !dateutil.SameDay(v.date, v.now) {
		return false
	}
	return start < v.now.Hour()*60+v.now.Minute()
}
