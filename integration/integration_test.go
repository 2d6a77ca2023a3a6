package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/javiermolinar/daybook/internal/db"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/planner"
	"github.com/javiermolinar/daybook/internal/task"
)

// openRepo creates a fresh repository for each test with automatic cleanup.
func openRepo(t *testing.T) *db.SQLite {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// mustParseDate parses a date string in local time or fails the test.
func mustParseDate(t *testing.T, s string) time.Time {
	t.Helper()
	date, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", s, err)
	}
	return date
}

// createTask is a helper to create and insert a pending task.
func createTask(t *testing.T, repo *db.SQLite, content, priority, duration string) *task.Task {
	t.Helper()
	tsk, err := task.New(content, "work", priority, duration, "")
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	if err := repo.CreateTask(context.Background(), tsk); err != nil {
		t.Fatalf("failed to insert task: %v", err)
	}
	return tsk
}

// createScheduled inserts a task that already holds a slot.
func createScheduled(t *testing.T, repo *db.SQLite, content string, date time.Time, start, end string) (*task.Task, error) {
	t.Helper()
	tsk, err := task.New(content, "work", "medium", "1h", "")
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	tsk.ScheduledDate, tsk.ScheduledStart, tsk.ScheduledEnd = &date, start, end
	return tsk, repo.CreateTask(context.Background(), tsk)
}

func TestCreateTask(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	tsk, err := task.New("Integration test task", "study", "high", "90m", "2025-01-24")
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	if err := repo.CreateTask(ctx, tsk); err != nil {
		t.Fatalf("failed to insert task: %v", err)
	}
	if tsk.ID == 0 {
		t.Error("expected task ID to be set after insert")
	}

	got, err := repo.GetTask(ctx, tsk.ID)
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.Content != "Integration test task" {
		t.Errorf("Content: got %q", got.Content)
	}
	if got.Category != task.CategoryStudy || got.Priority != task.PriorityHigh {
		t.Errorf("Category/Priority: got %s/%s", got.Category, got.Priority)
	}
	if got.EstimatedDuration != "90m" {
		t.Errorf("EstimatedDuration: got %q", got.EstimatedDuration)
	}
	if got.Deadline == nil || got.Deadline.Format("2006-01-02") != "2025-01-24" {
		t.Errorf("Deadline: got %v", got.Deadline)
	}
	if got.IsScheduled() || got.Status != task.StatusPending || got.CompletedAt != nil {
		t.Errorf("new task should be pending and unscheduled: %+v", got)
	}
}

func TestNewTask_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		category string
		priority string
		duration string
		deadline string
		wantErr  error
	}{
		{"empty content", "  ", "", "high", "1h", "", task.ErrEmptyContent},
		{"unknown category", "x", "chores", "high", "1h", "", task.ErrInvalidCategory},
		{"unknown priority", "x", "", "urgent", "1h", "", task.ErrInvalidPriority},
		{"empty priority", "x", "", "", "1h", "", task.ErrInvalidPriority},
		{"bad duration", "x", "", "low", "1.5h", "", task.ErrInvalidDuration},
		{"zero duration", "x", "", "low", "0m", "", task.ErrInvalidDuration},
		{"duration past a day", "x", "", "low", "153722867280912930h", "", task.ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := task.New(tt.content, tt.category, tt.priority, tt.duration, tt.deadline)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetTask_NotFound(t *testing.T) {
	repo := openRepo(t)

	_, err := repo.GetTask(context.Background(), 99999)
	if !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestCompleteTask(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	tsk := createTask(t, repo, "Finish chapter", "high", "2h")

	at := time.Date(2025, 1, 20, 17, 45, 0, 0, time.Local)
	if err := repo.CompleteTask(ctx, tsk.ID, at); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	got, err := repo.GetTask(ctx, tsk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsCompleted() {
		t.Errorf("status: got %s", got.Status)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(at) {
		t.Errorf("CompletedAt: got %v, want %v", got.CompletedAt, at)
	}

	if err := repo.CompleteTask(ctx, 99999, at); !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestListTasks_Filters(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	monday := mustParseDate(t, "2025-01-20")

	low := createTask(t, repo, "Low", "low", "30m")
	high := createTask(t, repo, "High", "high", "30m")
	medium := createTask(t, repo, "Medium", "medium", "30m")
	booked, err := createScheduled(t, repo, "Booked", monday, "09:00", "10:00")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.CompleteTask(ctx, low.ID, time.Now()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter task.Filter
		want   []int64
	}{
		{"all by priority", task.Filter{}, []int64{high.ID, medium.ID, booked.ID, low.ID}},
		{"pending", task.Filter{Status: task.StatusPending}, []int64{high.ID, medium.ID, booked.ID}},
		{"completed", task.Filter{Status: task.StatusCompleted}, []int64{low.ID}},
		{"unscheduled pending", task.Filter{Status: task.StatusPending, UnscheduledOnly: true}, []int64{high.ID, medium.ID}},
		{"on monday", task.Filter{Date: &monday}, []int64{booked.ID}},
		{"limit", task.Filter{Limit: 1}, []int64{high.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListTasks(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tasks, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: got #%d (%s), want #%d", i, got[i].ID, got[i].Content, id)
				}
			}
		})
	}
}

func TestTimeBlockOverlap(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	date := mustParseDate(t, "2025-01-20")

	first, err := createScheduled(t, repo, "First", date, "09:00", "10:00")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := createScheduled(t, repo, "Overlapping", date, "09:30", "10:30"); !errors.Is(err, task.ErrTimeBlockOverlap) {
		t.Errorf("expected ErrTimeBlockOverlap, got %v", err)
	}
	if _, err := createScheduled(t, repo, "Adjacent", date, "10:00", "11:00"); err != nil {
		t.Errorf("adjacent slot should be accepted: %v", err)
	}
	if _, err := createScheduled(t, repo, "Other day", date.AddDate(0, 0, 1), "09:00", "10:00"); err != nil {
		t.Errorf("same slot on another day should be accepted: %v", err)
	}

	// Moving a task onto itself is not an overlap.
	first.ScheduledStart, first.ScheduledEnd = "08:30", "09:30"
	if err := repo.UpdateTask(ctx, first); err != nil {
		t.Errorf("moving a task within its own slot: %v", err)
	}
}

func TestApplySchedule_Atomic(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	monday := mustParseDate(t, "2025-01-20")

	standup, err := task.NewFixedSchedule("Standup", time.Monday, "09:00", "09:30", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateFixed(ctx, standup); err != nil {
		t.Fatal(err)
	}

	a := createTask(t, repo, "A", "high", "1h")
	b := createTask(t, repo, "B", "high", "1h")

	tests := []struct {
		name    string
		updates []task.TimeUpdate
	}{
		{"overlap each other", []task.TimeUpdate{{ID: a.ID, Start: "10:00", End: "11:00"}, {ID: b.ID, Start: "10:30", End: "11:30"}}},
		{"overlap fixed schedule", []task.TimeUpdate{{ID: a.ID, Start: "10:00", End: "11:00"}, {ID: b.ID, Start: "09:00", End: "10:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.ApplySchedule(ctx, monday, tt.updates)
			if !errors.Is(err, task.ErrTimeBlockOverlap) {
				t.Fatalf("expected ErrTimeBlockOverlap, got %v", err)
			}
			got, err := repo.GetTask(ctx, a.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.IsScheduled() {
				t.Error("a rejected batch must not write anything")
			}
		})
	}

	ok := []task.TimeUpdate{{ID: a.ID, Start: "09:30", End: "10:30"}, {ID: b.ID, Start: "10:30", End: "11:30"}}
	if err := repo.ApplySchedule(ctx, monday, ok); err != nil {
		t.Fatalf("valid batch rejected: %v", err)
	}
	got, err := repo.ListTasks(ctx, task.Filter{Date: &monday})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 tasks on monday, got %d", len(got))
	}
}

// TestFullWorkflow drives the store, the planner and the allocator through
// one day: fixed schedules, auto-scheduling, completion and the summary.
func TestFullWorkflow(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	// Monday 2025-01-20, 08:00 local.
	now := time.Date(2025, 1, 20, 8, 0, 0, 0, time.Local)
	monday := mustParseDate(t, "2025-01-20")

	bus := events.NewBus()
	sub := bus.Subscribe(events.EventScheduleUpdated)
	defer bus.Unsubscribe(sub)
	svc := planner.New(repo, nil, bus, zerolog.Nop(), planner.WithClock(func() time.Time { return now }))

	for _, f := range []struct {
		title      string
		start, end string
	}{
		{"Lecture", "09:00", "10:30"},
		{"Lunch", "12:30", "13:30"},
	} {
		fs, err := task.NewFixedSchedule(f.title, time.Monday, f.start, f.end, "")
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.CreateFixed(ctx, fs); err != nil {
			t.Fatal(err)
		}
	}

	// A task booked on another weekday's fixed slot must not block Monday.
	other, err := task.NewFixedSchedule("Gym", time.Tuesday, "10:30", "12:30", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateFixed(ctx, other); err != nil {
		t.Fatal(err)
	}

	essay := createTask(t, repo, "Essay", "high", "2h")
	email := createTask(t, repo, "Email", "low", "30m")
	review := createTask(t, repo, "Review", "medium", "1h")
	huge := createTask(t, repo, "Huge", "low", "8h")

	report, err := svc.AutoSchedule(ctx, monday)
	if err != nil {
		t.Fatalf("AutoSchedule failed: %v", err)
	}

	want := map[int64][2]string{
		essay.ID:  {"10:30", "12:30"},
		review.ID: {"13:30", "14:30"},
		email.ID:  {"14:30", "15:00"},
	}
	if len(report.Scheduled) != len(want) {
		t.Fatalf("scheduled %d tasks, want %d: %+v", len(report.Scheduled), len(want), report.Scheduled)
	}
	for _, p := range report.Scheduled {
		slot, ok := want[p.Task.ID]
		if !ok {
			t.Errorf("unexpected placement of %s", p.Task.Content)
			continue
		}
		if p.Start != slot[0] || p.End != slot[1] {
			t.Errorf("%s: got %s-%s, want %s-%s", p.Task.Content, p.Start, p.End, slot[0], slot[1])
		}
	}
	if len(report.Unscheduled) != 1 || report.Unscheduled[0].Task.ID != huge.ID {
		t.Errorf("expected Huge left over, got %+v", report.Unscheduled)
	}

	select {
	case ev := <-sub:
		if ev.Type != events.EventScheduleUpdated {
			t.Errorf("event type = %s", ev.Type)
		}
	case <-time.After(time.Second):
		t.Error("no schedule_updated event published")
	}

	// The day view interleaves fixed schedules and booked tasks.
	fixed, err := repo.ListFixedByWeekday(ctx, time.Monday)
	if err != nil {
		t.Fatal(err)
	}
	booked, err := repo.ListTasks(ctx, task.Filter{Date: &monday})
	if err != nil {
		t.Fatal(err)
	}
	day := task.NewDay(monday, fixed, booked)
	var titles []string
	for _, e := range day.Entries() {
		titles = append(titles, e.Start+" "+e.Title())
	}
	wantTitles := []string{"09:00 Lecture", "10:30 Essay", "12:30 Lunch", "13:30 Review", "14:30 Email"}
	if len(titles) != len(wantTitles) {
		t.Fatalf("entries = %v, want %v", titles, wantTitles)
	}
	for i := range wantTitles {
		if titles[i] != wantTitles[i] {
			t.Errorf("entry %d = %q, want %q", i, titles[i], wantTitles[i])
		}
	}

	// Running again places nothing new and keeps existing slots.
	again, err := svc.AutoSchedule(ctx, monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Scheduled) != 0 || len(again.Unscheduled) != 1 {
		t.Errorf("second run: %d scheduled, %d left over", len(again.Scheduled), len(again.Unscheduled))
	}

	if err := repo.CompleteTask(ctx, essay.ID, monday.Add(12*time.Hour+35*time.Minute)); err != nil {
		t.Fatal(err)
	}

	summary, err := svc.DaySummary(ctx, monday, false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Stats.Total != 3 || summary.Stats.Completed != 1 || summary.Stats.Pending != 2 {
		t.Errorf("summary stats = %+v", summary.Stats)
	}
	if summary.Stats.PendingOverall != 3 {
		t.Errorf("PendingOverall = %d, want 3", summary.Stats.PendingOverall)
	}
	if summary.Stats.ScheduledMinutes != 210 || summary.Stats.CompletedMinutes != 120 {
		t.Errorf("minutes = %d scheduled, %d completed", summary.Stats.ScheduledMinutes, summary.Stats.CompletedMinutes)
	}
}
