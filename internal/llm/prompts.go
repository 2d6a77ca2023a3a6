package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/task"
)

// ParsedTask is the reply to AnalyzeTaskMessages.
type ParsedTask struct {
	Task              string  `json:"task"`
	Category          string  `json:"category"`
	Priority          string  `json:"priority"`
	EstimatedDuration string  `json:"estimated_duration"`
	Deadline          *string `json:"deadline"`
}

// ProposedSlot is one element of the reply to OptimizeMessages.
type ProposedSlot struct {
	ID             int64  `json:"id"`
	ScheduledStart string `json:"scheduled_start"`
	ScheduledEnd   string `json:"scheduled_end"`
	Reason         string `json:"reason"`
}

// OptimizeRequest is everything the optimizer prompt describes.
type OptimizeRequest struct {
	Date        time.Time
	Preferences task.Preferences
	Fixed       []*task.FixedSchedule // already filtered to Date's weekday
	Booked      []*task.Task          // tasks already scheduled on Date
	Tasks       []*task.Task          // tasks to place
}

const analyzeSystemPrompt = `You turn a short note into a task. Reply with a single JSON object and nothing else:
{"task": "...", "category": "work|study|life|other", "priority": "high|medium|low", "estimated_duration": "30m or 2h", "deadline": "YYYY-MM-DDTHH:MM:SS or null"}
Rules:
- "task" is the note rewritten as a short imperative.
- "estimated_duration" is a whole number followed by m or h.
- Resolve relative dates such as "tomorrow" or "friday" against the current time.
- Use null for the deadline when the note does not mention one.`

// AnalyzeTaskMessages builds the prompt that parses free text into a ParsedTask.
func AnalyzeTaskMessages(text string, now time.Time) []Message {
	return []Message{
		{Role: RoleSystem, Content: analyzeSystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf("Current time: %s (%s)\nNote: %s",
			now.Format("2006-01-02T15:04"), now.Weekday(), text)},
	}
}

const optimizeSystemPrompt = `You are a scheduling assistant. Place every listed task into the work window of the given day.
Reply with a JSON array and nothing else:
[{"id": 1, "scheduled_start": "HH:MM", "scheduled_end": "HH:MM", "reason": "..."}]
Hard rules:
- Times are 24-hour HH:MM and every slot lies inside the work window.
- scheduled_end minus scheduled_start equals the task's duration.
- Slots never overlap each other, the fixed schedules, or the booked tasks.
- Use only the task ids listed. Each id appears at most once.
Preferences:
- High priority and near deadlines first.
- Demanding work early in the day.
- Group tasks of the same category together.
- Leave the break duration between consecutive tasks when it fits.`

// OptimizeMessages builds the prompt asking for a []ProposedSlot.
func OptimizeMessages(req OptimizeRequest) []Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Date: %s (weekday %d, %s; weekdays count 0=Sunday to 6=Saturday)\n",
		dateutil.FormatDate(req.Date), int(req.Date.Weekday()), req.Date.Weekday())
	fmt.Fprintf(&b, "Work window: %s-%s\n", req.Preferences.WorkStart, req.Preferences.WorkEnd)
	if req.Preferences.BreakDuration != "" {
		fmt.Fprintf(&b, "Break duration: %s\n", req.Preferences.BreakDuration)
	}
	if req.Preferences.FocusPreference != "" {
		fmt.Fprintf(&b, "Focus preference: %s\n", req.Preferences.FocusPreference)
	}

	b.WriteString("\nFixed schedules (never occupy):\n")
	if len(req.Fixed) == 0 {
		b.WriteString("- none\n")
	}
	for _, f := range req.Fixed {
		fmt.Fprintf(&b, "- weekday %d %s-%s %s\n", int(f.Weekday), f.Start, f.End, f.Title)
	}

	if len(req.Booked) > 0 {
		b.WriteString("\nBooked tasks (never occupy):\n")
		for _, t := range req.Booked {
			fmt.Fprintf(&b, "- %s-%s %s\n", t.ScheduledStart, t.ScheduledEnd, t.Content)
		}
	}

	b.WriteString("\nTasks to place:\n")
	for _, t := range req.Tasks {
		deadline := "none"
		if t.Deadline != nil {
			deadline = t.Deadline.Format("2006-01-02T15:04")
		}
		fmt.Fprintf(&b, "- id=%d %q category=%s priority=%s duration=%dm deadline=%s\n",
			t.ID, t.Content, t.Category, t.Priority, t.DurationMinutes(), deadline)
	}

	return []Message{
		{Role: RoleSystem, Content: optimizeSystemPrompt},
		{Role: RoleUser, Content: b.String()},
	}
}

// FeedbackMessages extends a conversation with the rejected reply and the
// problems found in it, asking for a corrected answer.
func FeedbackMessages(messages []Message, reply, problems string) []Message {
	out := make([]Message, len(messages), len(messages)+2)
	copy(out, messages)
	if reply != "" {
		out = append(out, Message{Role: RoleAssistant, Content: reply})
	}
	return append(out, Message{
		Role: RoleUser,
		Content: "Your schedule was rejected:\n" + problems +
			"\nFix every problem and reply with the complete corrected JSON array only.",
	})
}

const chatSystemPrompt = `You are a warm, encouraging personal secretary. You help the user plan their day,
remind them what matters, and cheer them on. Keep answers short and practical.`

// ChatMessages builds a conversation from stored history, a few pending
// tasks for context, and the new user message.
func ChatMessages(history []*task.ChatMessage, pending []*task.Task, now time.Time, msg string) []Message {
	var sys strings.Builder
	sys.WriteString(chatSystemPrompt)
	fmt.Fprintf(&sys, "\n\nCurrent time: %s (%s).", now.Format("2006-01-02 15:04"), now.Weekday())
	if len(pending) > 0 {
		sys.WriteString("\nPending tasks:")
		for _, t := range pending {
			fmt.Fprintf(&sys, "\n- %s (%s priority, %s)", t.Content, t.Priority, t.EstimatedDuration)
		}
	}

	out := make([]Message, 0, len(history)+2)
	out = append(out, Message{Role: RoleSystem, Content: sys.String()})
	for _, h := range history {
		role := RoleUser
		if h.Role == task.RoleAssistant {
			role = RoleAssistant
		}
		out = append(out, Message{Role: role, Content: h.Content})
	}
	return append(out, Message{Role: RoleUser, Content: msg})
}

// ParseSlots decodes an optimizer reply. A single object is accepted as a
// one-element array.
func ParseSlots(reply string) ([]ProposedSlot, error) {
	var slots []ProposedSlot
	if err := decodeJSON(reply, &slots); err == nil {
		return slots, nil
	}
	var one ProposedSlot
	if err := decodeJSON(reply, &one); err != nil {
		return nil, err
	}
	return []ProposedSlot{one}, nil
}

const reviewSystemPrompt = `You review the user's day in three or four sentences.
Mention what got done, what slipped, and one concrete suggestion for tomorrow. Be kind and specific.`

// ReviewDayMessages builds the prompt for the optional end-of-day insight.
func ReviewDayMessages(date time.Time, tasks []*task.Task, pendingOverall int) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Day: %s (%s)\n", dateutil.FormatDate(date), date.Weekday())
	for _, t := range tasks {
		slot := "unscheduled"
		if t.IsScheduled() {
			slot = t.ScheduledStart + "-" + t.ScheduledEnd
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %s priority, %s)\n", t.Status, t.Content, slot, t.Priority, t.Category)
	}
	fmt.Fprintf(&b, "Pending tasks overall: %d\n", pendingOverall)

	return []Message{
		{Role: RoleSystem, Content: reviewSystemPrompt},
		{Role: RoleUser, Content: b.String()},
	}
}
