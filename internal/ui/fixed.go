package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/task"
)

func (a *App) fixedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixed",
		Short: "Manage weekly fixed schedules",
		Long: `Fixed schedules are recurring appointments such as classes or standing
meetings. The scheduler never places a task on top of one.`,
	}
	cmd.AddCommand(a.fixedAddCmd(), a.fixedListCmd(), a.fixedRmCmd(), a.importCmd())
	return cmd
}

func (a *App) fixedAddCmd() *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "add [title] [weekday] [start] [end]",
		Short: "Add a weekly fixed schedule",
		Example: `  daybook fixed add "Algorithms" monday 09:00 10:30 --location="Room 101"
  daybook fixed add "Team sync" 3 14:00 14:30`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekday, err := dateutil.ParseWeekday(args[1])
			if err != nil {
				return err
			}
			f, err := task.NewFixedSchedule(args[0], weekday, args[2], args[3], location)
			if err != nil {
				return err
			}

			svc, err := a.ensureService()
			if err != nil {
				return err
			}
			if err := svc.Store().CreateFixed(cmd.Context(), f); err != nil {
				return fmt.Errorf("creating fixed schedule: %w", err)
			}
			svc.Publish(events.EventScheduleUpdated, events.Payload{"source": "fixed", "fixed_id": f.ID})

			_, _ = fmt.Fprintf(a.out, "Created fixed schedule #%d: %s every %s %s-%s\n",
				f.ID, f.Title, f.Weekday, f.Start, f.End)
			return nil
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "Where it takes place")
	return cmd
}

func (a *App) fixedListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List weekly fixed schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			list, err := a.store.ListFixed(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing fixed schedules: %w", err)
			}
			if len(list) == 0 {
				_, _ = fmt.Fprintln(a.out, "No fixed schedules.")
				return nil
			}
			for _, f := range list {
				printFixedRow(a.out, f)
			}
			return nil
		},
	}
}

func (a *App) fixedRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a fixed schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if err := a.store.DeleteFixed(cmd.Context(), id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, "Deleted fixed schedule #%d\n", id)
			return nil
		},
	}
}
