package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/scheduler"
	"github.com/javiermolinar/daybook/internal/summary"
	"github.com/javiermolinar/daybook/internal/task"
)

// Defaults used when free text cannot be analyzed.
const (
	fallbackCategory = "other"
	fallbackPriority = "medium"
	fallbackDuration = "1h"
)

// AddFromText creates a task from a free-form note. The LLM proposes the
// fields; if it is unavailable, fails, or proposes anything invalid, the note
// itself becomes a medium priority, one hour task with no deadline.
func (s *Service) AddFromText(ctx context.Context, text string) (*task.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, task.ErrEmptyContent
	}

	t := s.analyze(ctx, text)
	if t == nil {
		var err error
		t, err = task.New(text, fallbackCategory, fallbackPriority, fallbackDuration, "")
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("saving task: %w", err)
	}
	s.Publish(events.EventTaskAdded, events.Payload{"id": t.ID, "content": t.Content})
	return t, nil
}

// analyze returns nil when the LLM result cannot be used.
func (s *Service) analyze(ctx context.Context, text string) *task.Task {
	if s.llm == nil {
		return nil
	}

	var parsed llm.ParsedTask
	if err := s.llm.ChatJSON(ctx, llm.AnalyzeTaskMessages(text, s.now()), &parsed); err != nil {
		s.logger.Warn().Err(err).Msg("task analysis failed, using defaults")
		return nil
	}

	content := parsed.Task
	if strings.TrimSpace(content) == "" {
		content = text
	}
	deadline := ""
	if parsed.Deadline != nil {
		deadline = *parsed.Deadline
	}

	t, err := task.New(content, parsed.Category, parsed.Priority, parsed.EstimatedDuration, deadline)
	if err != nil {
		s.logger.Warn().Err(err).Interface("parsed", parsed).Msg("task analysis invalid, using defaults")
		return nil
	}
	return t
}

// Chat sends one user message with recent history and pending tasks as
// context, and stores both turns.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	if s.llm == nil {
		return "", ErrNoLLM
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	history, err := s.store.RecentChat(ctx, chatHistoryLimit)
	if err != nil {
		return "", fmt.Errorf("loading chat history: %w", err)
	}
	pending, err := s.store.ListTasks(ctx, task.Filter{Status: task.StatusPending, Limit: chatTaskLimit})
	if err != nil {
		return "", fmt.Errorf("fetching pending tasks: %w", err)
	}

	now := s.now()
	reply, err := s.llm.Chat(ctx, llm.ChatMessages(history, pending, now, message))
	if err != nil {
		return "", fmt.Errorf("LLM chat: %w", err)
	}

	for _, m := range []*task.ChatMessage{
		{Role: task.RoleUser, Content: message, Timestamp: now},
		{Role: task.RoleAssistant, Content: reply, Timestamp: s.now()},
	} {
		if err := s.store.AddChatMessage(ctx, m); err != nil {
			return "", fmt.Errorf("saving chat message: %w", err)
		}
	}

	s.Publish(events.EventAIMessage, events.Payload{"type": "chat", "content": reply})
	return reply, nil
}

// MorningGreeting returns the morning message, or "" when proactive chat is
// disabled.
func (s *Service) MorningGreeting(ctx context.Context) (string, error) {
	prefs, err := s.store.GetPreferences(ctx)
	if err != nil {
		return "", err
	}
	if !prefs.EnableMainChat {
		return "", nil
	}

	pending, err := s.store.CountPending(ctx)
	if err != nil {
		return "", err
	}
	top, err := s.store.ListTasks(ctx, task.Filter{Status: task.StatusPending, Limit: 1})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Good morning! You have %d pending tasks", pending)
	if len(top) == 1 && top[0].Priority == task.PriorityHigh {
		fmt.Fprintf(&b, ", the most important is: %s", top[0].Content)
	}
	b.WriteString(". Have a great day!")
	return b.String(), nil
}

// SleepReview returns the evening message, or "" when proactive chat is
// disabled.
func (s *Service) SleepReview(ctx context.Context) (string, error) {
	prefs, err := s.store.GetPreferences(ctx)
	if err != nil {
		return "", err
	}
	if !prefs.EnableMainChat {
		return "", nil
	}

	day, err := s.DaySummary(ctx, s.now(), false)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("You completed %d tasks today, %d still pending. Rest well, tomorrow is another day!",
		day.Stats.Completed, day.Stats.PendingOverall), nil
}

// Reminder is a nudge for a task about to start.
type Reminder struct {
	Task    *task.Task
	Message string
}

// TaskStartReminders returns a reminder for every pending task scheduled
// today whose start lies within the reminder lead of now, inclusive.
func (s *Service) TaskStartReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	prefs, err := s.store.GetPreferences(ctx)
	if err != nil {
		return nil, err
	}
	if !prefs.EnableMainChat {
		return nil, nil
	}

	from := now.Hour()*60 + now.Minute()
	to := from + int(s.reminderLead/time.Minute)
	if to >= scheduler.MinutesPerDay {
		to = scheduler.MinutesPerDay - 1
	}

	tasks, err := s.store.UpcomingTasks(ctx, dateutil.TruncateToDay(now),
		scheduler.FormatMinutes(from), scheduler.FormatMinutes(to))
	if err != nil {
		return nil, err
	}

	out := make([]Reminder, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Reminder{
			Task:    t,
			Message: fmt.Sprintf("Almost time, get ready to start '%s'!", t.Content),
		})
	}
	return out, nil
}

// DaySummary returns the counts for date. With insight set and an LLM
// configured, a short review is added.
func (s *Service) DaySummary(ctx context.Context, date time.Time, insight bool) (*summary.DaySummary, error) {
	opts := summary.BuildOptions{Date: date}
	if insight {
		if s.llm == nil {
			return nil, ErrNoLLM
		}
		opts.Insight = s.llm
	}
	return summary.BuildDaySummary(ctx, s.store, opts)
}
