package tui

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/daybook/internal/task"
	"github.com/javiermolinar/daybook/internal/tui/input"
)

// AgendaText renders the day as plain text for the clipboard.
func AgendaText(day *task.Day) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", day.Date.Format("Monday 2006-01-02"))

	entries := day.Entries()
	if len(entries) == 0 {
		b.WriteString("(nothing scheduled)\n")
	}
	for _, e := range entries {
		mark := ""
		if e.Kind == task.EntryTask && e.Task.IsCompleted() {
			mark = " [done]"
		}
		fmt.Fprintf(&b, "%s-%s %s%s\n", e.Start, e.End, e.Title(), mark)
	}

	if backlog := day.Unscheduled(); len(backlog) > 0 {
		b.WriteString("\nUnscheduled:\n")
		for _, t := range backlog {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", t.Content, t.EstimatedDuration, t.Priority)
		}
	}
	return b.String()
}

// promptHints lists the commands matching the prompt prefix.
func promptHints(value string) string {
	matches := input.Suggest(value)
	parts := make([]string, 0, len(matches))
	for _, c := range matches {
		parts = append(parts, c.Name+" "+c.Description)
	}
	return strings.Join(parts, "  ·  ")
}
