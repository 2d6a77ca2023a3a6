package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/javiermolinar/daybook/internal/config"
	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/jobs"
	"github.com/javiermolinar/daybook/internal/scheduler"
)

// Job names.
const (
	JobMorningGreeting = "morning_greeting"
	JobSleepReview     = "sleep_review"
	JobTaskReminders   = "task_reminders"
	JobAutoSchedule    = "auto_schedule"
)

// Jobs returns the background jobs enabled in cfg. An empty spec disables a
// job, except sleep_review which then follows the preferences'
// SleepReminderTime.
func (s *Service) Jobs(ctx context.Context, cfg config.JobsConfig) ([]jobs.Job, error) {
	sleepSpec := cfg.Sleep
	if sleepSpec == "" {
		prefs, err := s.store.GetPreferences(ctx)
		if err != nil {
			return nil, err
		}
		sleepSpec, err = dailySpec(prefs.SleepReminderTime)
		if err != nil {
			return nil, fmt.Errorf("sleep reminder time: %w", err)
		}
	}

	var out []jobs.Job
	add := func(name, spec string, run func(context.Context, time.Time) error) {
		if spec != "" {
			out = append(out, jobs.Job{Name: name, Spec: spec, Run: run})
		}
	}

	add(JobMorningGreeting, cfg.Morning, s.runMorningGreeting)
	add(JobSleepReview, sleepSpec, s.runSleepReview)
	add(JobTaskReminders, cfg.Reminders, newReminderJob(s).run)
	add(JobAutoSchedule, cfg.AutoSchedule, func(ctx context.Context, now time.Time) error {
		_, err := s.AutoSchedule(ctx, now)
		return err
	})
	return out, nil
}

// dailySpec turns "HH:MM" into a cron spec firing at that time every day.
func dailySpec(hhmm string) (string, error) {
	m, err := scheduler.TimeToMinutes(hhmm)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", m%60, m/60), nil
}

func (s *Service) runMorningGreeting(ctx context.Context, _ time.Time) error {
	msg, err := s.MorningGreeting(ctx)
	if err != nil || msg == "" {
		return err
	}
	s.Publish(events.EventAIMessage, events.Payload{"type": "greeting", "content": msg})
	return nil
}

func (s *Service) runSleepReview(ctx context.Context, _ time.Time) error {
	msg, err := s.SleepReview(ctx)
	if err != nil || msg == "" {
		return err
	}
	s.Publish(events.EventAIMessage, events.Payload{"type": "sleep", "content": msg})
	return nil
}

// reminderJob remembers which tasks it already announced so a task is
// reminded once even though the job fires every minute of its lead.
type reminderJob struct {
	svc *Service

	mu   sync.Mutex
	day  string
	sent map[string]bool
}

func newReminderJob(s *Service) *reminderJob {
	return &reminderJob{svc: s, sent: make(map[string]bool)}
}

func (j *reminderJob) run(ctx context.Context, now time.Time) error {
	reminders, err := j.svc.TaskStartReminders(ctx, now)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if day := dateutil.FormatDate(now); day != j.day {
		j.day = day
		j.sent = make(map[string]bool)
	}
	for _, r := range reminders {
		key := fmt.Sprintf("%d@%s", r.Task.ID, r.Task.ScheduledStart)
		if j.sent[key] {
			continue
		}
		j.sent[key] = true
		j.svc.Publish(events.EventReminder, events.Payload{
			"task_id": r.Task.ID,
			"content": r.Task.Content,
			"start":   r.Task.ScheduledStart,
			"message": r.Message,
		})
	}
	return nil
}
