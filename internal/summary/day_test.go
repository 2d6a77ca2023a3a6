package summary

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/daybook/internal/db"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/task"
)

func TestSummarizeDay(t *testing.T) {
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.Local)
	other := day.AddDate(0, 0, 1)
	doneAt := day.Add(20 * time.Hour)

	tasks := []*task.Task{
		{
			ID:             1,
			Content:        "Report",
			Category:       task.CategoryWork,
			Priority:       task.PriorityHigh,
			ScheduledDate:  &day,
			ScheduledStart: "09:00",
			ScheduledEnd:   "11:00",
			Status:         task.StatusCompleted,
			CompletedAt:    &doneAt,
		},
		{
			ID:                2,
			Content:           "Read",
			Category:          task.CategoryStudy,
			Priority:          task.PriorityLow,
			EstimatedDuration: "30m",
			ScheduledDate:     &day,
			ScheduledStart:    "11:00",
			ScheduledEnd:      "11:30",
			Status:            task.StatusPending,
		},
		{
			ID:                3,
			Content:           "Groceries",
			Category:          task.CategoryLife,
			Priority:          task.PriorityMedium,
			EstimatedDuration: "1h",
			Status:            task.StatusCompleted,
			CompletedAt:       &doneAt,
		},
		{
			ID:             4,
			Content:        "Tomorrow",
			Category:       task.CategoryWork,
			ScheduledDate:  &other,
			ScheduledStart: "09:00",
			ScheduledEnd:   "10:00",
			Status:         task.StatusPending,
		},
	}
	// Task 1 listed twice, as happens when scheduled and completed lists are merged.
	tasks = append(tasks, tasks[0])

	s := SummarizeDay(day.Add(13*time.Hour), tasks)

	if !s.Date.Equal(day) {
		t.Fatalf("date = %v, want %v", s.Date, day)
	}
	if len(s.Tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(s.Tasks))
	}
	st := s.Stats
	if st.Total != 3 || st.Completed != 2 || st.Pending != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", st.Total, st.Completed, st.Pending)
	}
	if st.ScheduledMinutes != 150 {
		t.Errorf("scheduled minutes = %d, want 150", st.ScheduledMinutes)
	}
	if st.CompletedMinutes != 180 {
		t.Errorf("completed minutes = %d, want 180", st.CompletedMinutes)
	}
	if st.ByCategory[task.CategoryWork] != 1 || st.ByCategory[task.CategoryLife] != 1 {
		t.Errorf("by category = %v", st.ByCategory)
	}
	if st.ByPriority[task.PriorityHigh] != 1 || st.ByPriority[task.PriorityLow] != 1 {
		t.Errorf("by priority = %v", st.ByPriority)
	}
	// Unscheduled tasks sort first, then by start.
	if s.Tasks[0].ID != 3 || s.Tasks[1].ID != 1 {
		t.Errorf("unexpected order: %d, %d", s.Tasks[0].ID, s.Tasks[1].ID)
	}
}

type reviewLLM struct {
	got []llm.Message
}

func (r *reviewLLM) Chat(_ context.Context, msgs []llm.Message) (string, error) {
	r.got = msgs
	return "Solid day.", nil
}

func (r *reviewLLM) ChatJSON(context.Context, []llm.Message, any) error {
	return nil
}

func TestBuildDaySummary(t *testing.T) {
	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	defer func() { _ = repo.Close() }()

	ctx := context.Background()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.Local)

	for _, content := range []string{"Write", "Call", "Later"} {
		tk, err := task.New(content, "work", "medium", "1h", "")
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.CreateTask(ctx, tk); err != nil {
			t.Fatal(err)
		}
	}
	err = repo.ApplySchedule(ctx, day, []task.TimeUpdate{
		{ID: 1, Start: "09:00", End: "10:00"},
		{ID: 2, Start: "10:00", End: "11:00"},
	})
	if err != nil {
		t.Fatalf("ApplySchedule: %v", err)
	}
	if err := repo.CompleteTask(ctx, 1, day.Add(10*time.Hour)); err != nil {
		t.Fatal(err)
	}

	client := &reviewLLM{}
	s, err := BuildDaySummary(ctx, repo, BuildOptions{Date: day, Insight: client})
	if err != nil {
		t.Fatalf("BuildDaySummary: %v", err)
	}
	if s.Stats.Total != 2 || s.Stats.Completed != 1 {
		t.Errorf("stats = %+v", s.Stats)
	}
	if s.Stats.PendingOverall != 2 {
		t.Errorf("pending overall = %d, want 2", s.Stats.PendingOverall)
	}
	if s.Insight != "Solid day." {
		t.Errorf("insight = %q", s.Insight)
	}
	if len(client.got) != 2 || !strings.Contains(client.got[1].Content, "[completed] Write") {
		t.Errorf("unexpected review prompt: %+v", client.got)
	}
}
