// Package jobs runs named background jobs on 5-field cron specs.
//
// A Runner is an active object: one goroutine owns the schedule, sleeps until
// the earliest next fire (never longer than a minute, so clock jumps are
// noticed) and runs due jobs in turn. The host owns its lifecycle.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"

	"github.com/javiermolinar/daybook/internal/telemetry"
)

const maxSleepCap = 60 * time.Second

// Errors returned by Add.
var (
	ErrInvalidSpec  = errors.New("cron spec must be a valid 5-field expression")
	ErrDuplicateJob = errors.New("job already registered")
	ErrNoRunFunc    = errors.New("job has no run function")
)

// Job is a named unit of background work.
type Job struct {
	Name string
	Spec string // 5-field cron, e.g. "0 8 * * *"
	Run  func(ctx context.Context, now time.Time) error
}

type entry struct {
	job  Job
	next time.Time
}

// Runner schedules and runs jobs.
type Runner struct {
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries []*entry
	names   map[string]bool

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Runner. Jobs may be added before or after Start.
func New(logger zerolog.Logger) *Runner {
	return &Runner{
		logger: logger.With().Str("component", "jobs").Logger(),
		now:    time.Now,
		names:  make(map[string]bool),
		wake:   make(chan struct{}, 1),
	}
}

// Add validates and registers a job.
func (r *Runner) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("%w: %s", ErrNoRunFunc, job.Name)
	}
	if len(strings.Fields(job.Spec)) != 5 || !gronx.IsValid(job.Spec) {
		return fmt.Errorf("%w: %s %q", ErrInvalidSpec, job.Name, job.Spec)
	}

	next, err := gronx.NextTickAfter(job.Spec, r.now(), false)
	if err != nil {
		return fmt.Errorf("computing next run of %s: %w", job.Name, err)
	}

	r.mu.Lock()
	if r.names[job.Name] {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	r.names[job.Name] = true
	r.entries = append(r.entries, &entry{job: job, next: next})
	r.mu.Unlock()

	r.logger.Debug().Str("job", job.Name).Str("spec", job.Spec).Time("next", next).Msg("job registered")

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return nil
}

// Jobs returns the registered job names with their next fire times.
func (r *Runner) Jobs() map[string]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]time.Time, len(r.entries))
	for _, e := range r.entries {
		out[e.job.Name] = e.next
	}
	return out
}

// Start launches the scheduling goroutine. It stops when ctx is cancelled or
// Stop is called. Only the first call starts anything; a runner is not
// restarted after Stop.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.run(ctx, r.done)
}

// Stop cancels the runner and waits for a running job to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Runner) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	r.logger.Info().Int("jobs", len(r.Jobs())).Msg("job runner started")
	defer r.logger.Info().Msg("job runner stopped")

	timer := time.NewTimer(r.sleepDuration())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		case <-timer.C:
			r.fireDue(ctx, r.now())
		}
		timer.Reset(r.sleepDuration())
	}
}

// sleepDuration returns the time until the earliest next fire, capped.
func (r *Runner) sleepDuration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := maxSleepCap
	now := r.now()
	for _, e := range r.entries {
		if until := e.next.Sub(now); until < d {
			d = until
		}
	}
	if d < 0 {
		d = 0
	}
	return d
}

// fireDue runs every job whose next fire is not after now, then reschedules it.
func (r *Runner) fireDue(ctx context.Context, now time.Time) {
	r.mu.Lock()
	var due []*entry
	for _, e := range r.entries {
		if !e.next.After(now) {
			due = append(due, e)
		}
	}
	r.mu.Unlock()

	for _, e := range due {
		if ctx.Err() != nil {
			return
		}
		r.runOne(ctx, e.job, now)

		next, err := gronx.NextTickAfter(e.job.Spec, now, false)
		if err != nil {
			r.logger.Error().Err(err).Str("job", e.job.Name).Msg("cannot reschedule job")
			next = now.Add(24 * time.Hour)
		}
		r.mu.Lock()
		e.next = next
		r.mu.Unlock()
	}
}

func (r *Runner) runOne(ctx context.Context, job Job, now time.Time) {
	start := time.Now()
	err := job.Run(ctx, now)
	if err != nil {
		telemetry.JobRunsTotal.WithLabelValues(job.Name, "error").Inc()
		r.logger.Error().Err(err).Str("job", job.Name).Msg("job failed")
		return
	}
	telemetry.JobRunsTotal.WithLabelValues(job.Name, "ok").Inc()
	r.logger.Debug().Str("job", job.Name).Dur("took", time.Since(start)).Msg("job finished")
}
