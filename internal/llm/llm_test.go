package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/daybook/internal/task"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "raw json object",
			input:    `{"task": "x"}`,
			expected: `{"task": "x"}`,
		},
		{
			name:     "json with leading text",
			input:    `Here is the response: {"task": "write report"} hope it helps`,
			expected: `{"task": "write report"}`,
		},
		{
			name:     "json in code block",
			input:    "```json\n[{\"id\": 1}]\n```",
			expected: `[{"id": 1}]`,
		},
		{
			name:     "json in plain code block",
			input:    "```\n{\"task\": \"x\"}\n```",
			expected: `{"task": "x"}`,
		},
		{
			name:     "json array",
			input:    `[{"id": 1}, {"id": 2}]`,
			expected: `[{"id": 1}, {"id": 2}]`,
		},
		{
			name:     "brackets inside strings",
			input:    `ok: {"reason": "after the {standup] call"} done`,
			expected: `{"reason": "after the {standup] call"}`,
		},
		{
			name:     "escaped quote inside string",
			input:    `{"task": "say \"hi}\""}`,
			expected: `{"task": "say \"hi}\""}`,
		},
		{
			name:     "no json",
			input:    "sorry, I cannot help",
			expected: "sorry, I cannot help",
		},
		{
			name:     "markdown with explanation",
			input:    "Here's the plan:\n\n```json\n[\n  {\"id\": 3, \"scheduled_start\": \"09:00\"}\n]\n```\n\nLet me know.",
			expected: "[\n  {\"id\": 3, \"scheduled_start\": \"09:00\"}\n]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON(tt.input)
			if got != tt.expected {
				t.Errorf("extractJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var parsed ParsedTask
	reply := "```json\n{\"task\": \"Buy milk\", \"category\": \"life\", \"priority\": \"low\", \"estimated_duration\": \"30m\", \"deadline\": null}\n```"
	if err := decodeJSON(reply, &parsed); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if parsed.Task != "Buy milk" || parsed.Category != "life" || parsed.EstimatedDuration != "30m" {
		t.Errorf("got %+v", parsed)
	}
	if parsed.Deadline != nil {
		t.Errorf("expected nil deadline, got %q", *parsed.Deadline)
	}

	var slots []ProposedSlot
	if err := decodeJSON("not json at all", &slots); err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestAnalyzeTaskMessages(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 30, 0, 0, time.Local)
	msgs := AnalyzeTaskMessages("call mom tomorrow", now)

	if len(msgs) != 2 || msgs[0].Role != RoleSystem || msgs[1].Role != RoleUser {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if !strings.Contains(msgs[1].Content, "2025-03-14T10:30") {
		t.Errorf("user message should carry the current time: %q", msgs[1].Content)
	}
	if !strings.Contains(msgs[1].Content, "call mom tomorrow") {
		t.Errorf("user message should carry the note: %q", msgs[1].Content)
	}
}

func TestOptimizeMessages(t *testing.T) {
	date := time.Date(2025, 3, 16, 0, 0, 0, 0, time.Local) // Sunday
	deadline := time.Date(2025, 3, 17, 18, 0, 0, 0, time.Local)
	req := OptimizeRequest{
		Date:        date,
		Preferences: task.DefaultPreferences(),
		Fixed: []*task.FixedSchedule{
			{Title: "Yoga", Weekday: time.Sunday, Start: "10:00", End: "11:00"},
		},
		Booked: []*task.Task{
			{Content: "Brunch", ScheduledStart: "12:00", ScheduledEnd: "13:00"},
		},
		Tasks: []*task.Task{
			{ID: 7, Content: "Write report", Category: task.CategoryWork, Priority: task.PriorityHigh, EstimatedDuration: "2h", Deadline: &deadline},
			{ID: 8, Content: "Read", Category: task.CategoryStudy, Priority: task.PriorityLow, EstimatedDuration: "30m"},
		},
	}

	msgs := OptimizeMessages(req)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	body := msgs[1].Content
	for _, want := range []string{
		"2025-03-16 (weekday 0, Sunday",
		"Work window: 09:00-18:00",
		"weekday 0 10:00-11:00 Yoga",
		"12:00-13:00 Brunch",
		`id=7 "Write report" category=work priority=high duration=120m deadline=2025-03-17T18:00`,
		`id=8 "Read" category=study priority=low duration=30m deadline=none`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("prompt missing %q:\n%s", want, body)
		}
	}
}

func TestFeedbackMessages(t *testing.T) {
	base := []Message{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "u"}}
	out := FeedbackMessages(base, `[{"id": 1}]`, "- entry 0: bad time")

	if len(base) != 2 {
		t.Fatal("input slice must not be modified")
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(out))
	}
	if out[2].Role != RoleAssistant || out[3].Role != RoleUser {
		t.Errorf("unexpected roles: %s, %s", out[2].Role, out[3].Role)
	}
	if !strings.Contains(out[3].Content, "bad time") {
		t.Errorf("feedback should include problems: %q", out[3].Content)
	}

	if got := FeedbackMessages(base, "", "x"); len(got) != 3 {
		t.Errorf("empty reply should not be echoed, got %d messages", len(got))
	}
}

func TestChatMessages(t *testing.T) {
	now := time.Date(2025, 3, 14, 21, 5, 0, 0, time.Local)
	history := []*task.ChatMessage{
		{Role: task.RoleUser, Content: "hi"},
		{Role: task.RoleAssistant, Content: "hello!"},
	}
	pending := []*task.Task{{Content: "Pay rent", Priority: task.PriorityHigh, EstimatedDuration: "15m"}}

	msgs := ChatMessages(history, pending, now, "what next?")

	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].Content, "2025-03-14 21:05") || !strings.Contains(msgs[0].Content, "Pay rent") {
		t.Errorf("system prompt missing context: %q", msgs[0].Content)
	}
	if msgs[2].Role != RoleAssistant {
		t.Errorf("history role not kept: %s", msgs[2].Role)
	}
	if last := msgs[3]; last.Role != RoleUser || last.Content != "what next?" {
		t.Errorf("unexpected last message: %+v", last)
	}
}

func TestToLangChainAndOpenAIMessages(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleAssistant, Content: "a"},
	}
	if got := toLangChainMessages(msgs); len(got) != 3 {
		t.Errorf("toLangChainMessages len = %d", len(got))
	}
	if got := toOpenAIMessages(msgs); len(got) != 3 {
		t.Errorf("toOpenAIMessages len = %d", len(got))
	}
}

func TestParseSlots(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    int
		wantErr bool
	}{
		{name: "array", reply: `[{"id": 1, "scheduled_start": "09:00", "scheduled_end": "10:00"}, {"id": 2}]`, want: 2},
		{name: "fenced array", reply: "```json\n[{\"id\": 1}]\n```", want: 1},
		{name: "single object", reply: `{"id": 4, "scheduled_start": "13:00", "scheduled_end": "14:00"}`, want: 1},
		{name: "empty array", reply: `[]`, want: 0},
		{name: "prose", reply: "I could not build a schedule.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSlots(tt.reply)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSlots: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d slots, want %d", len(got), tt.want)
			}
		})
	}
}
