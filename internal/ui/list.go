package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/task"
)

func (a *App) listCmd() *cobra.Command {
	var (
		all         bool
		status      string
		date        string
		unscheduled bool
		verbose     bool
		noColor     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks ordered by priority, then deadline.

By default only pending tasks are shown. --date limits the list to the
tasks scheduled on that day.`,
		Example: `  daybook list
  daybook list --all
  daybook list --date=tomorrow
  daybook list --status=completed`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			f := task.Filter{UnscheduledOnly: unscheduled}
			switch {
			case status != "":
				s := task.Status(status)
				if !s.Valid() {
					return task.ErrInvalidStatus
				}
				f.Status = s
			case !all:
				f.Status = task.StatusPending
			}
			if date != "" {
				d, err := dateutil.ParseDate(date, time.Now())
				if err != nil {
					return err
				}
				f.Date = &d
			}

			tasks, err := a.store.ListTasks(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("listing tasks: %w", err)
			}
			if len(tasks) == 0 {
				_, _ = fmt.Fprintln(a.out, "No tasks found.")
				return nil
			}

			width := descWidth(verbose, 40)
			for _, t := range tasks {
				printTaskRow(a.out, t, width)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status: pending or completed")
	cmd.Flags().StringVar(&date, "date", "", "Only tasks scheduled on this day")
	cmd.Flags().BoolVarP(&unscheduled, "unscheduled", "u", false, "Only tasks without a slot")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show full task content")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

func (a *App) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.ensureService()
			if err != nil {
				return err
			}

			if err := svc.Store().CompleteTask(cmd.Context(), id, time.Now()); err != nil {
				return err
			}
			svc.Publish(events.EventTaskCompleted, events.Payload{"task_id": id})

			_, _ = fmt.Fprintf(a.out, "Completed task #%d\n", id)
			return nil
		},
	}
}

func (a *App) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.ensureService()
			if err != nil {
				return err
			}

			if err := svc.Store().DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			svc.Publish(events.EventTaskDeleted, events.Payload{"task_id": id})

			_, _ = fmt.Fprintf(a.out, "Deleted task #%d\n", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
