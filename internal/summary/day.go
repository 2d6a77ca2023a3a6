// Package summary provides the shared end-of-day summary.
package summary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/task"
)

// Stats holds counts for one day.
type Stats struct {
	Total            int
	Completed        int
	Pending          int
	PendingOverall   int // pending tasks on any date, set by BuildDaySummary
	ScheduledMinutes int
	CompletedMinutes int
	ByCategory       map[task.Category]int
	ByPriority       map[task.Priority]int
}

// DaySummary holds aggregated day data and optional insight.
type DaySummary struct {
	Date    time.Time
	Tasks   []*task.Task
	Stats   Stats
	Insight string
}

// BuildOptions configures the repository-backed summary builder.
type BuildOptions struct {
	Date time.Time

	// Insight, when set, is asked for a short review of the day.
	Insight llm.Client
}

// SummarizeDay counts the tasks scheduled on date or completed on it.
// Other tasks are ignored, and a task present twice is counted once.
func SummarizeDay(date time.Time, tasks []*task.Task) *DaySummary {
	date = dateutil.TruncateToDay(date)
	s := &DaySummary{
		Date: date,
		Stats: Stats{
			ByCategory: make(map[task.Category]int),
			ByPriority: make(map[task.Priority]int),
		},
	}

	seen := make(map[int64]bool)
	for _, t := range tasks {
		onDay := t.IsScheduledOn(date) || (t.CompletedAt != nil && dateutil.SameDay(t.CompletedAt.In(date.Location()), date))
		if !onDay || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		s.Tasks = append(s.Tasks, t)

		st := &s.Stats
		st.Total++
		st.ByCategory[t.Category]++
		st.ByPriority[t.Priority]++
		minutes := t.DurationMinutes()
		if iv, err := t.Interval(); err == nil {
			minutes = iv.Len()
		}
		if t.IsScheduled() {
			st.ScheduledMinutes += minutes
		}
		if t.IsCompleted() {
			st.Completed++
			st.CompletedMinutes += minutes
		} else {
			st.Pending++
		}
	}

	sort.SliceStable(s.Tasks, func(i, j int) bool {
		return s.Tasks[i].ScheduledStart < s.Tasks[j].ScheduledStart
	})
	return s
}

// BuildDaySummary loads tasks for the requested day and optionally adds insight.
func BuildDaySummary(ctx context.Context, repo task.Repository, opts BuildOptions) (*DaySummary, error) {
	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = dateutil.TruncateToDay(date)

	scheduled, err := repo.ListTasks(ctx, task.Filter{Date: &date})
	if err != nil {
		return nil, fmt.Errorf("fetching scheduled tasks: %w", err)
	}
	completed, err := repo.ListTasks(ctx, task.Filter{Status: task.StatusCompleted})
	if err != nil {
		return nil, fmt.Errorf("fetching completed tasks: %w", err)
	}

	summary := SummarizeDay(date, append(scheduled, completed...))

	summary.Stats.PendingOverall, err = repo.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting pending tasks: %w", err)
	}

	if opts.Insight != nil && len(summary.Tasks) > 0 {
		msgs := llm.ReviewDayMessages(date, summary.Tasks, summary.Stats.PendingOverall)
		insight, err := opts.Insight.Chat(ctx, msgs)
		if err != nil {
			return nil, fmt.Errorf("reviewing day: %w", err)
		}
		summary.Insight = insight
	}

	return summary, nil
}
