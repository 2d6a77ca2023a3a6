package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/dateutil"
)

func (a *App) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant about your tasks",
		Long: `Send one message to the assistant. It sees your pending tasks and the
recent conversation, which is kept in the database.`,
		Example: `  daybook chat "what should I focus on this afternoon?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.ensureService()
			if err != nil {
				return err
			}

			reply, err := svc.Chat(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printInsightWrapped(a.out, reply, termWidth())
			return nil
		},
	}
}

func (a *App) greetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "greet [morning|sleep]",
		Short:     "Print the morning greeting or the bedtime review",
		Long:      `Print the message the background jobs would send. Nothing is printed when proactive messages are turned off in the preferences.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"morning", "sleep"},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.ensureService()
			if err != nil {
				return err
			}

			var msg string
			if args[0] == "morning" {
				msg, err = svc.MorningGreeting(cmd.Context())
			} else {
				msg, err = svc.SleepReview(cmd.Context())
			}
			if err != nil {
				return err
			}
			if msg == "" {
				_, _ = fmt.Fprintln(a.out, formatMuted("Proactive messages are disabled."))
				return nil
			}
			printInsightWrapped(a.out, msg, termWidth())
			return nil
		},
	}
}

func (a *App) summaryCmd() *cobra.Command {
	var (
		date    string
		insight bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize a day",
		Long: `Count the tasks scheduled on or completed during a day. With --insight
the assistant adds a short review.`,
		Example: `  daybook summary
  daybook summary --date=yesterday --insight`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			day, err := dateutil.ParseDate(date, time.Now())
			if err != nil {
				return err
			}
			svc, err := a.ensureService()
			if err != nil {
				return err
			}

			s, err := svc.DaySummary(cmd.Context(), day, insight)
			if err != nil {
				return err
			}
			printSummary(a.out, s)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to summarize (default: today)")
	cmd.Flags().BoolVarP(&insight, "insight", "i", false, "Ask the assistant for a review")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}
