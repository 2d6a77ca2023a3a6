package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/planner"
	"github.com/javiermolinar/daybook/internal/scheduler"
)

func (a *App) scheduleCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Fill the day's free time with pending tasks",
		Long: `Place every pending unscheduled task into the free time of the work
window, highest priority and earliest deadline first. Fixed schedules
and tasks already booked that day are never moved. Tasks that do not
fit stay unscheduled.`,
		Example: `  daybook schedule
  daybook schedule --date=tomorrow`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := dateutil.ParseDate(date, time.Now())
			if err != nil {
				return err
			}
			svc, err := a.ensureService()
			if err != nil {
				return err
			}

			report, err := svc.AutoSchedule(cmd.Context(), day)
			if err != nil {
				return fmt.Errorf("scheduling: %w", err)
			}
			a.printReport(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to schedule (default: today)")
	return cmd
}

func (a *App) printReport(r *planner.Report) {
	window := scheduler.Interval{Start: r.Window.Start, End: r.Window.End}
	_, _ = fmt.Fprintf(a.out, "=== %s ===  %s\n\n",
		formatHeader(r.Date.Format("Monday, January 2, 2006")), formatMuted("window "+window.String()))

	if len(r.Scheduled) == 0 && len(r.Unscheduled) == 0 {
		_, _ = fmt.Fprintln(a.out, "Nothing to schedule.")
		return
	}

	for _, p := range r.Scheduled {
		_, _ = fmt.Fprintf(a.out, "  %s-%s  %s #%d %s\n",
			p.Start, p.End,
			formatPriority(p.Task.Priority, "["+priorityBadge(p.Task.Priority)+"]"),
			p.Task.ID, p.Task.Content)
	}

	if len(r.Unscheduled) > 0 {
		_, _ = fmt.Fprintf(a.out, "\n%s\n", formatHeader("Did not fit:"))
		for _, l := range r.Unscheduled {
			_, _ = fmt.Fprintf(a.out, "  ! #%d %s (%s)\n", l.Task.ID, l.Task.Content, l.Reason)
		}
	}

	_, _ = fmt.Fprintf(a.out, "\nScheduled %s, %d left over\n",
		formatStats(fmt.Sprintf("%d task(s)", len(r.Scheduled))), len(r.Unscheduled))
}

func (a *App) optimizeCmd() *cobra.Command {
	var (
		date    string
		retries int
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Ask the LLM for a schedule of the pending tasks",
		Long: `Ask the configured LLM to place the pending unscheduled tasks into the
day. Every proposal is checked against the work window, fixed schedules
and booked tasks; rejected proposals are sent back with the problems
found. Nothing is saved unless a proposal passes.`,
		Example: `  daybook optimize
  daybook optimize --date=2025-03-18 --retries=4`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := dateutil.ParseDate(date, time.Now())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("retries") {
				retries = a.config.LLM.MaxRetries
			}
			svc, err := a.ensureService()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(a.out, "Asking the assistant for a plan...")
			result, err := svc.Optimize(cmd.Context(), day, retries)
			if errors.Is(err, planner.ErrMaxRetriesExceeded) && result != nil {
				_, _ = fmt.Fprintf(a.out, "\n%s\n", formatError("Validation errors (retry limit reached):"))
				for _, ve := range result.ValidationErrors {
					_, _ = fmt.Fprintf(a.out, "  - %s\n", ve)
				}
				return err
			}
			if err != nil {
				return fmt.Errorf("optimizing: %w", err)
			}

			if len(result.Slots) == 0 {
				_, _ = fmt.Fprintln(a.out, "Nothing to schedule.")
				return nil
			}

			_, _ = fmt.Fprintf(a.out, "\n=== %s ===\n\n", formatHeader(result.Date.Format("Monday, January 2, 2006")))
			for _, s := range result.Slots {
				content := fmt.Sprintf("#%d", s.ID)
				if t, err := svc.Store().GetTask(cmd.Context(), s.ID); err == nil {
					content += " " + t.Content
				}
				_, _ = fmt.Fprintf(a.out, "  %s-%s  %s\n", s.ScheduledStart, s.ScheduledEnd, content)
				if reason := strings.TrimSpace(s.Reason); reason != "" {
					_, _ = fmt.Fprintf(a.out, "               %s\n", formatMuted(reason))
				}
			}
			_, _ = fmt.Fprintf(a.out, "\nSaved %d slot(s) after %d attempt(s)\n", len(result.Slots), result.Attempts)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to optimize (default: today)")
	cmd.Flags().IntVar(&retries, "retries", 0, "Retries after a rejected proposal (default from config)")
	return cmd
}
