package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/task"
)

func (a *App) addCmd() *cobra.Command {
	var (
		priority string
		duration string
		category string
		deadline string
	)

	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a new task",
		Long: `Add a pending task. It stays unscheduled until 'daybook schedule'
or 'daybook optimize' gives it a slot.`,
		Example: `  daybook add "Write documentation" --priority=high --duration=2h --category=work
  daybook add "Pay rent" --deadline=friday`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := task.New(args[0], category, priority, duration, deadline)
			if err != nil {
				return err
			}

			svc, err := a.ensureService()
			if err != nil {
				return err
			}
			if err := svc.Store().CreateTask(cmd.Context(), t); err != nil {
				return fmt.Errorf("creating task: %w", err)
			}
			svc.Publish(events.EventTaskAdded, events.Payload{"task_id": t.ID})

			_, _ = fmt.Fprintf(a.out, "Created task #%d: %s [%s, %s, %s]\n",
				t.ID, t.Content, t.Priority, t.EstimatedDuration, t.Category)
			return nil
		},
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Priority: high, medium or low")
	cmd.Flags().StringVarP(&duration, "duration", "d", "1h", "Estimated duration, e.g. 30m or 2h")
	cmd.Flags().StringVarP(&category, "category", "c", "other", "Category: work, study, life or other")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (YYYY-MM-DD, tomorrow, friday, +3d...)")

	return cmd
}

func (a *App) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [free text]",
		Short: "Create a task from a free-text description",
		Long: `Ask the LLM to read priority, duration, category and deadline out of
a sentence. Without an LLM the text is stored as a medium, one hour task.`,
		Example: `  daybook parse "finish the quarterly report by friday, about 3 hours, urgent"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.ensureService()
			if err != nil {
				return err
			}

			t, err := svc.AddFromText(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(a.out, "Created task #%d:\n", t.ID)
			printTaskRow(a.out, t, descWidth(true, 40))
			return nil
		},
	}
}
