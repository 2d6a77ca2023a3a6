// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/planner"
	"github.com/javiermolinar/daybook/internal/task"
)

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// DayLoadedMsg is sent when a day's agenda is loaded.
type DayLoadedMsg struct {
	Day   *task.Day
	Prefs task.Preferences
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsg carries a temporary status line. Reload asks the model to
// refresh the current day.
type StatusMsg struct {
	Msg    string
	Reload bool
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// ScheduledMsg is sent when the local allocator has run.
type ScheduledMsg struct {
	Report *planner.Report
}

// OptimizedMsg is sent when the LLM optimizer has finished.
type OptimizedMsg struct {
	Result *planner.OptimizeResult
}

// ChatReplyMsg carries the assistant's answer.
type ChatReplyMsg struct {
	Reply string
}

// LoadDay loads fixed schedules, assigned tasks and the unscheduled backlog
// for date.
func LoadDay(svc *planner.Service, date time.Time) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		store := svc.Store()
		date = dateutil.TruncateToDay(date)

		prefs, err := store.GetPreferences(ctx)
		if err != nil {
			return ErrMsg{Err: err}
		}
		fixed, err := store.ListFixedByWeekday(ctx, date.Weekday())
		if err != nil {
			return ErrMsg{Err: err}
		}
		scheduled, err := store.ListTasks(ctx, task.Filter{Date: &date})
		if err != nil {
			return ErrMsg{Err: err}
		}
		backlog, err := store.ListTasks(ctx, task.Filter{Status: task.StatusPending, UnscheduledOnly: true})
		if err != nil {
			return ErrMsg{Err: err}
		}

		return DayLoadedMsg{
			Day:   task.NewDay(date, fixed, append(scheduled, backlog...)),
			Prefs: prefs,
		}
	}
}

// AutoSchedule runs the greedy allocator for date.
func AutoSchedule(svc *planner.Service, date time.Time) tea.Cmd {
	return func() tea.Msg {
		report, err := svc.AutoSchedule(context.Background(), date)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ScheduledMsg{Report: report}
	}
}

// Optimize asks the LLM to place the pending tasks on date.
func Optimize(svc *planner.Service, date time.Time, maxRetries int) tea.Cmd {
	return func() tea.Msg {
		result, err := svc.Optimize(context.Background(), date, maxRetries)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return OptimizedMsg{Result: result}
	}
}

// CompleteTask marks a task done.
func CompleteTask(svc *planner.Service, t *task.Task, at time.Time) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Store().CompleteTask(context.Background(), t.ID, at); err != nil {
			return ErrMsg{Err: err}
		}
		svc.Publish(events.EventTaskCompleted, events.Payload{"id": t.ID, "content": t.Content})
		return StatusMsg{Msg: fmt.Sprintf("Completed: %s", t.Content), Reload: true}
	}
}

// DeleteTask removes a task.
func DeleteTask(svc *planner.Service, t *task.Task) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Store().DeleteTask(context.Background(), t.ID); err != nil {
			return ErrMsg{Err: err}
		}
		svc.Publish(events.EventTaskDeleted, events.Payload{"id": t.ID})
		return StatusMsg{Msg: fmt.Sprintf("Deleted: %s", t.Content), Reload: true}
	}
}

// AddFromText creates a task from a free-form note.
func AddFromText(svc *planner.Service, text string) tea.Cmd {
	return func() tea.Msg {
		t, err := svc.AddFromText(context.Background(), text)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return StatusMsg{
			Msg:    fmt.Sprintf("Added #%d: %s [%s, %s]", t.ID, t.Content, t.Priority, t.EstimatedDuration),
			Reload: true,
		}
	}
}

// Chat sends a message to the assistant.
func Chat(svc *planner.Service, message string) tea.Cmd {
	return func() tea.Msg {
		reply, err := svc.Chat(context.Background(), message)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ChatReplyMsg{Reply: reply}
	}
}

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if err := writeClipboard(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return StatusMsg{Msg: "Agenda copied to clipboard"}
	}
}

// ClearStatusAfter clears the status line after d.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
