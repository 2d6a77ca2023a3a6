package ui

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/task"
)

func (a *App) prefsCmd() *cobra.Command {
	var p task.Preferences

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "View or change scheduling preferences",
		Long: `Without flags, print the stored preferences. Any flag given replaces
that preference; the others keep their value.`,
		Example: `  daybook prefs
  daybook prefs --work-start=08:30 --work-end=17:00
  daybook prefs --main-chat=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			ctx := cmd.Context()

			current, err := a.store.GetPreferences(ctx)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			changed := false
			set := func(name string, dst *string, v string) {
				if flags.Changed(name) {
					*dst, changed = v, true
				}
			}
			set("work-start", &current.WorkStart, p.WorkStart)
			set("work-end", &current.WorkEnd, p.WorkEnd)
			set("break", &current.BreakDuration, p.BreakDuration)
			set("focus", &current.FocusPreference, p.FocusPreference)
			set("sleep-reminder", &current.SleepReminderTime, p.SleepReminderTime)
			if flags.Changed("main-chat") {
				current.EnableMainChat, changed = p.EnableMainChat, true
			}
			if flags.Changed("auto-reschedule") {
				current.AutoRescheduleOnDrag, changed = p.AutoRescheduleOnDrag, true
			}

			if changed {
				if err := a.store.UpdatePreferences(ctx, current); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(a.out, "Preferences saved.")
			}
			printPreferences(a.out, current)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.WorkStart, "work-start", "", "Start of the work window (HH:MM)")
	f.StringVar(&p.WorkEnd, "work-end", "", "End of the work window (HH:MM)")
	f.StringVar(&p.BreakDuration, "break", "", "Break length, e.g. 15m")
	f.StringVar(&p.FocusPreference, "focus", "", "When you focus best, e.g. morning")
	f.StringVar(&p.SleepReminderTime, "sleep-reminder", "", "Time of the bedtime review (HH:MM)")
	f.BoolVar(&p.EnableMainChat, "main-chat", true, "Send greetings and task reminders")
	f.BoolVar(&p.AutoRescheduleOnDrag, "auto-reschedule", false, "Reschedule the rest of the day after a move")
	return cmd
}

func printPreferences(w io.Writer, p task.Preferences) {
	_, _ = fmt.Fprintln(w, formatHeader("Preferences"))
	_, _ = fmt.Fprintf(w, "  work window      = %s-%s\n", p.WorkStart, p.WorkEnd)
	_, _ = fmt.Fprintf(w, "  break            = %s\n", p.BreakDuration)
	_, _ = fmt.Fprintf(w, "  focus            = %s\n", p.FocusPreference)
	_, _ = fmt.Fprintf(w, "  main chat        = %t\n", p.EnableMainChat)
	_, _ = fmt.Fprintf(w, "  sleep reminder   = %s\n", p.SleepReminderTime)
	_, _ = fmt.Fprintf(w, "  auto reschedule  = %t\n", p.AutoRescheduleOnDrag)
}
