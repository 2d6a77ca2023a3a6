package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/summary"
	"github.com/javiermolinar/daybook/internal/task"
)

// rowOverhead is the width of "  ○ #NNN [H] HH:MM-HH:MM  " before the content.
const rowOverhead = 27

// descWidth returns how many columns the task content may use.
func descWidth(verbose bool, defaultWidth int) int {
	if !verbose {
		return defaultWidth
	}
	// duration, category and due date suffix
	available := termWidth() - rowOverhead - 28
	if available > defaultWidth {
		return available
	}
	return defaultWidth
}

// printTaskRow prints a single task row with consistent formatting.
func printTaskRow(w io.Writer, t *task.Task, maxDescWidth int) {
	badge := formatPriority(t.Priority, "["+priorityBadge(t.Priority)+"]")

	slot := "           "
	if t.IsScheduled() {
		slot = t.ScheduledStart + "-" + t.ScheduledEnd
	}

	details := t.EstimatedDuration + "  " + string(t.Category)
	if t.Deadline != nil {
		details += "  due " + dateutil.FormatDate(*t.Deadline)
	}
	if t.ScheduledDate != nil && !t.IsScheduled() {
		details += "  on " + dateutil.FormatDate(*t.ScheduledDate)
	}

	_, _ = fmt.Fprintf(w, "  %s #%-3d %s %s  %-*s  %s\n",
		statusSymbol(t.Status), t.ID, badge, slot,
		maxDescWidth, truncate(t.Content, maxDescWidth), formatMuted(details))
}

// printFixedRow prints one fixed schedule.
func printFixedRow(w io.Writer, f *task.FixedSchedule) {
	title := f.Title
	if f.Location != "" {
		title += " @ " + f.Location
	}
	_, _ = fmt.Fprintf(w, "  #%-3d %-9s %s-%s  %s  %s\n",
		f.ID, f.Weekday, f.Start, f.End, formatFixed(title), formatMuted(string(f.Source)))
}

// printSummary prints day statistics and the optional insight.
func printSummary(w io.Writer, s *summary.DaySummary) {
	_, _ = fmt.Fprintf(w, "=== %s ===\n\n", formatHeader(s.Date.Format("Monday, January 2, 2006")))

	st := s.Stats
	_, _ = fmt.Fprintf(w, "Tasks: %d  |  %s  |  Pending: %d  (%d overall)\n",
		st.Total, formatStats(fmt.Sprintf("Completed: %d", st.Completed)), st.Pending, st.PendingOverall)
	_, _ = fmt.Fprintf(w, "Time: %s scheduled, %s done\n",
		FormatDuration(st.ScheduledMinutes), FormatDuration(st.CompletedMinutes))
	if st.Total > 0 {
		_, _ = fmt.Fprintf(w, "Progress: %s\n", ProgressBar(st.Completed, st.Total, 20))
	}

	if len(st.ByCategory) > 0 {
		_, _ = fmt.Fprintf(w, "By category: %s\n", joinCounts(st.ByCategory))
	}
	if len(st.ByPriority) > 0 {
		_, _ = fmt.Fprintf(w, "By priority: %s\n", joinCounts(st.ByPriority))
	}

	if len(s.Tasks) > 0 {
		_, _ = fmt.Fprintln(w)
		width := descWidth(false, 40)
		for _, t := range s.Tasks {
			printTaskRow(w, t, width)
		}
	}

	if s.Insight != "" {
		_, _ = fmt.Fprintln(w)
		printInsightWrapped(w, s.Insight, termWidth())
	}
}

// joinCounts renders a count map as "a: 1, b: 2" in key order.
func joinCounts[K ~string](m map[K]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, m[K(k)]))
	}
	return strings.Join(parts, ", ")
}

// ProgressBar creates an ASCII bar showing the share of completed tasks.
func ProgressBar(done, total, width int) string {
	if total == 0 {
		return "[" + strings.Repeat("░", width) + "] (0% done)"
	}

	pct := (done * 100) / total
	filled := (done * width) / total

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", formatStats(bar), formatStats(fmt.Sprintf("(%d%% done)", pct)))
}

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

func statusSymbol(s task.Status) string {
	switch s {
	case task.StatusPending:
		return "○"
	case task.StatusCompleted:
		return "✓"
	default:
		return "?"
	}
}

func priorityBadge(p task.Priority) string {
	if p == "" {
		return "?"
	}
	return strings.ToUpper(string(p)[:1])
}

// truncate shortens s to width runes, ending in "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// printInsightWrapped formats and prints assistant text preserving structure.
func printInsightWrapped(w io.Writer, text string, width int) {
	text = stripMarkdownCodeBlocks(text)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			_, _ = fmt.Fprintln(w)
			continue
		}

		prefix, content, contentWidth, isHeader := parseInsightLine(trimmed, width)
		if isHeader {
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, formatHeader("  "+content))
			continue
		}

		wrapAndPrint(w, content, prefix, contentWidth)
	}
}

// parseInsightLine returns the prefix, content and wrap width for a line.
func parseInsightLine(trimmed string, width int) (prefix, content string, contentWidth int, isHeader bool) {
	prefix = "  "
	content = trimmed
	contentWidth = width - 2

	switch {
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		prefix = "    • "
		content = strings.TrimPrefix(strings.TrimPrefix(trimmed, "- "), "* ")
		contentWidth = width - 6

	case strings.HasPrefix(trimmed, "#"):
		content = strings.TrimLeft(trimmed, "# ")
		isHeader = true

	case strings.HasPrefix(trimmed, ">"):
		content = strings.TrimPrefix(trimmed, "> ")
		prefix = "  │ "
		contentWidth = width - 4

	case isNumberedItem(trimmed):
		idx := strings.Index(trimmed, ".")
		prefix = "  " + trimmed[:idx+1] + " "
		content = strings.TrimSpace(trimmed[idx+1:])
		contentWidth = width - len(prefix)
	}

	return prefix, content, contentWidth, isHeader
}

// isNumberedItem checks if a line starts with "1." through "99.".
func isNumberedItem(s string) bool {
	if len(s) < 3 {
		return false
	}
	if s[0] < '1' || s[0] > '9' {
		return false
	}
	if s[1] == '.' {
		return true
	}
	return s[1] >= '0' && s[1] <= '9' && len(s) > 3 && s[2] == '.'
}

// wrapAndPrint wraps text to width and prints with the given prefix.
func wrapAndPrint(w io.Writer, text, prefix string, width int) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}

	continuation := strings.Repeat(" ", len([]rune(prefix)))
	current := prefix
	line := ""
	for _, word := range words {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			_, _ = fmt.Fprintln(w, formatInsight(current+line))
			current = continuation
			line = word
		}
	}
	_, _ = fmt.Fprintln(w, formatInsight(current+line))
}

// stripMarkdownCodeBlocks removes ``` fence lines and their content.
func stripMarkdownCodeBlocks(text string) string {
	var result []string
	inCodeBlock := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if !inCodeBlock {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
