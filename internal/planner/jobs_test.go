package planner

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/javiermolinar/daybook/internal/config"
	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/jobs"
	"github.com/javiermolinar/daybook/internal/task"
)

func jobByName(t *testing.T, list []jobs.Job, name string) jobs.Job {
	t.Helper()
	for _, j := range list {
		if j.Name == name {
			return j
		}
	}
	t.Fatalf("job %s not found", name)
	return jobs.Job{}
}

func TestJobs(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		mutate    func(c *config.JobsConfig)
		wantNames []string
		wantSleep string
	}{
		{
			name:      "defaults",
			mutate:    func(*config.JobsConfig) {},
			wantNames: []string{JobMorningGreeting, JobSleepReview, JobTaskReminders},
			wantSleep: "0 22 * * *",
		},
		{
			name: "auto schedule enabled",
			mutate: func(c *config.JobsConfig) {
				c.AutoSchedule = "0 7 * * 1-5"
			},
			wantNames: []string{JobMorningGreeting, JobSleepReview, JobTaskReminders, JobAutoSchedule},
			wantSleep: "0 22 * * *",
		},
		{
			name: "sleep follows preferences",
			mutate: func(c *config.JobsConfig) {
				c.Sleep = ""
				c.Morning = ""
			},
			wantNames: []string{JobSleepReview, JobTaskReminders},
			wantSleep: "0 22 * * *",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Jobs
			tt.mutate(&cfg)

			list, err := svc.Jobs(ctx, cfg)
			if err != nil {
				t.Fatalf("Jobs: %v", err)
			}
			if len(list) != len(tt.wantNames) {
				t.Fatalf("got %d jobs, want %d", len(list), len(tt.wantNames))
			}
			runner := jobs.New(zerolog.Nop())
			for i, j := range list {
				if j.Name != tt.wantNames[i] {
					t.Errorf("job %d = %s, want %s", i, j.Name, tt.wantNames[i])
				}
				if err := runner.Add(j); err != nil {
					t.Errorf("runner rejected %s: %v", j.Name, err)
				}
			}
			if got := jobByName(t, list, JobSleepReview).Spec; got != tt.wantSleep {
				t.Errorf("sleep spec = %q, want %q", got, tt.wantSleep)
			}
		})
	}
}

func TestDailySpec(t *testing.T) {
	got, err := dailySpec("07:05")
	if err != nil {
		t.Fatalf("dailySpec: %v", err)
	}
	if got != "5 7 * * *" {
		t.Errorf("got %q", got)
	}
	if _, err := dailySpec("7am"); err == nil {
		t.Error("expected error for bad time")
	}
}

func TestGreetingJobsPublish(t *testing.T) {
	svc, store, bus := newTestService(t, nil)
	ctx := context.Background()
	sub := bus.Subscribe(events.EventAIMessage)
	mustTask(t, store, "Ship release", "high", "1h")

	list, err := svc.Jobs(ctx, config.Default().Jobs)
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}

	if err := jobByName(t, list, JobMorningGreeting).Run(ctx, testNow); err != nil {
		t.Fatalf("morning job: %v", err)
	}
	if ev := receive(t, sub); ev.Payload["type"] != "greeting" {
		t.Errorf("unexpected payload: %v", ev.Payload)
	}

	if err := jobByName(t, list, JobSleepReview).Run(ctx, testNow); err != nil {
		t.Fatalf("sleep job: %v", err)
	}
	if ev := receive(t, sub); ev.Payload["type"] != "sleep" {
		t.Errorf("unexpected payload: %v", ev.Payload)
	}
}

func TestReminderJobSendsOnce(t *testing.T) {
	svc, store, bus := newTestService(t, nil)
	ctx := context.Background()
	day := dateutil.TruncateToDay(testNow)
	sub := bus.Subscribe(events.EventReminder)

	tk := mustTask(t, store, "Standup notes", "medium", "30m")
	if err := store.ApplySchedule(ctx, day, []task.TimeUpdate{{ID: tk.ID, Start: "09:00", End: "09:30"}}); err != nil {
		t.Fatalf("ApplySchedule: %v", err)
	}

	list, err := svc.Jobs(ctx, config.Default().Jobs)
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	job := jobByName(t, list, JobTaskReminders)

	for _, minute := range []int{55, 56, 57, 58} {
		now := day.Add(8*time.Hour + time.Duration(minute)*time.Minute)
		if err := job.Run(ctx, now); err != nil {
			t.Fatalf("reminder job at 08:%d: %v", minute, err)
		}
	}

	ev := receive(t, sub)
	if ev.Payload["task_id"] != tk.ID || ev.Payload["start"] != "09:00" {
		t.Errorf("unexpected payload: %v", ev.Payload)
	}
	if n := drain(sub); n != 0 {
		t.Errorf("expected a single reminder, got %d more", n)
	}
}

func TestAutoScheduleJob(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	ctx := context.Background()
	tk := mustTask(t, store, "Plan sprint", "high", "1h")

	cfg := config.Default().Jobs
	cfg.AutoSchedule = "0 7 * * *"
	list, err := svc.Jobs(ctx, cfg)
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if err := jobByName(t, list, JobAutoSchedule).Run(ctx, testNow); err != nil {
		t.Fatalf("auto schedule job: %v", err)
	}
	if got := mustGet(t, store, tk.ID); got.ScheduledStart != "09:00" {
		t.Errorf("start = %q, want 09:00", got.ScheduledStart)
	}
}
