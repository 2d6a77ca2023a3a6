package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/daybook/internal/scheduler"
)

// Recurrence values for fixed schedules.
const (
	RecurrenceWeekly = "weekly"
)

// Source records where a fixed schedule came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
)

// FixedSchedule is a recurring appointment such as a class or a standing
// meeting. Weekday follows time.Weekday: 0=Sunday through 6=Saturday.
type FixedSchedule struct {
	ID         int64
	Title      string
	Weekday    time.Weekday
	Start      string // "HH:MM"
	End        string // "HH:MM"
	Recurrence string
	Location   string
	Source     Source
}

// NewFixedSchedule creates a weekly fixed schedule with validation.
func NewFixedSchedule(title string, weekday time.Weekday, start, end, location string) (*FixedSchedule, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, fmt.Errorf("weekday %d out of range 0-6", weekday)
	}

	f := &FixedSchedule{
		Title:      title,
		Weekday:    weekday,
		Start:      start,
		End:        end,
		Recurrence: RecurrenceWeekly,
		Location:   strings.TrimSpace(location),
		Source:     SourceManual,
	}
	if _, err := f.Interval(); err != nil {
		return nil, err
	}
	return f, nil
}

// Interval returns the appointment as minutes since midnight.
func (f *FixedSchedule) Interval() (scheduler.Interval, error) {
	start, err := scheduler.TimeToMinutes(f.Start)
	if err != nil {
		return scheduler.Interval{}, fmt.Errorf("start time: %w", err)
	}
	end, err := scheduler.TimeToMinutes(f.End)
	if err != nil {
		return scheduler.Interval{}, fmt.Errorf("end time: %w", err)
	}
	if end <= start {
		return scheduler.Interval{}, ErrEndBeforeStart
	}
	return scheduler.Interval{Start: start, End: end}, nil
}

// ToFixedIntervals converts stored schedules to allocator input.
// Entries with malformed times are returned as an error rather than skipped.
func ToFixedIntervals(fixed []*FixedSchedule) ([]scheduler.FixedInterval, error) {
	out := make([]scheduler.FixedInterval, 0, len(fixed))
	for _, f := range fixed {
		iv, err := f.Interval()
		if err != nil {
			return nil, fmt.Errorf("fixed schedule #%d %q: %w", f.ID, f.Title, err)
		}
		out = append(out, scheduler.FixedInterval{
			Weekday: f.Weekday,
			Start:   iv.Start,
			End:     iv.End,
			Title:   f.Title,
		})
	}
	return out, nil
}
