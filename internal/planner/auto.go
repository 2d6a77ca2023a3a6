package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/scheduler"
	"github.com/javiermolinar/daybook/internal/task"
	"github.com/javiermolinar/daybook/internal/telemetry"
)

// Placement is a task that received a slot.
type Placement struct {
	Task  *task.Task
	Start string
	End   string
}

// Leftover is a task the allocator could not place.
type Leftover struct {
	Task   *task.Task
	Reason string
}

// Report is the outcome of AutoSchedule.
type Report struct {
	Date        time.Time
	Window      scheduler.Window
	Scheduled   []Placement
	Unscheduled []Leftover
}

// AutoSchedule runs the greedy allocator over every pending unscheduled
// task for date and persists the placements. Tasks that do not fit are
// reported and left untouched.
func (s *Service) AutoSchedule(ctx context.Context, date time.Time) (*Report, error) {
	date = dateutil.TruncateToDay(date)

	_, window, err := s.workWindow(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}

	pending, err := s.unscheduledPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching pending tasks: %w", err)
	}

	fixed, booked, err := s.dayContext(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("loading day: %w", err)
	}
	busy, err := buildBusy(date, fixed, booked)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*task.Task, len(pending))
	items := make([]scheduler.Item, 0, len(pending))
	for _, t := range pending {
		item := t.AllocatorItem()
		byID[item.ID] = t
		items = append(items, item)
	}

	result, err := scheduler.Allocate(items, busy, window)
	if err != nil {
		return nil, fmt.Errorf("allocating: %w", err)
	}

	report := &Report{Date: date, Window: window}
	updates := make([]task.TimeUpdate, 0, len(result.Order))
	for _, a := range result.Scheduled() {
		p := Placement{
			Task:  byID[a.TaskID],
			Start: scheduler.FormatMinutes(a.Start),
			End:   scheduler.FormatMinutes(a.End),
		}
		report.Scheduled = append(report.Scheduled, p)
		updates = append(updates, task.TimeUpdate{ID: p.Task.ID, Start: p.Start, End: p.End})
	}
	for _, a := range result.Unscheduled() {
		report.Unscheduled = append(report.Unscheduled, Leftover{Task: byID[a.TaskID], Reason: a.Reason})
	}

	telemetry.AllocatorTasksTotal.WithLabelValues("scheduled").Add(float64(len(report.Scheduled)))
	telemetry.AllocatorTasksTotal.WithLabelValues("unscheduled").Add(float64(len(report.Unscheduled)))

	if len(updates) > 0 {
		if err := s.store.ApplySchedule(ctx, date, updates); err != nil {
			return nil, fmt.Errorf("saving schedule: %w", err)
		}
		for _, p := range report.Scheduled {
			d := date
			p.Task.ScheduledDate = &d
			p.Task.ScheduledStart = p.Start
			p.Task.ScheduledEnd = p.End
		}
	}

	s.logger.Info().
		Str("date", dateutil.FormatDate(date)).
		Int("scheduled", len(report.Scheduled)).
		Int("unscheduled", len(report.Unscheduled)).
		Msg("auto schedule")

	s.Publish(events.EventScheduleUpdated, events.Payload{
		"date":        dateutil.FormatDate(date),
		"source":      "auto",
		"scheduled":   len(report.Scheduled),
		"unscheduled": len(report.Unscheduled),
	})
	return report, nil
}

// buildBusy merges the fixed schedules recurring on date's weekday with the
// slots of tasks already assigned to date.
func buildBusy(date time.Time, fixed []*task.FixedSchedule, booked []*task.Task) (scheduler.BusySet, error) {
	fi, err := task.ToFixedIntervals(fixed)
	if err != nil {
		return nil, err
	}
	busy := scheduler.BuildBusy(date.Weekday(), fi)
	for _, t := range booked {
		iv, err := t.Interval()
		if err != nil {
			return nil, fmt.Errorf("task #%d %q: %w", t.ID, t.Content, err)
		}
		busy = busy.With(iv)
	}
	return busy, nil
}
