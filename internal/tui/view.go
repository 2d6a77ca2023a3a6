package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/scheduler"
	"github.com/javiermolinar/daybook/internal/task"
)

const helpText = "←/→ day  ↑/↓ move  s schedule  o optimize  space done  d delete  c chat  a add  y copy  q quit"

// View renders the model.
func (m Model) View() string {
	if m.day == nil {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderAgenda())
	b.WriteString(m.renderBacklog())

	if m.reply != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.ReplyStyle.Width(max(m.width-4, 20)).Render(m.reply))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.TitleStyle.Render("daybook")
	label := m.date.Format("Monday 2006-01-02")
	if m.isToday() {
		label += " (today)"
	}

	info := label
	if w, err := m.prefs.Window(); err == nil {
		info += "  " + scheduler.Interval{Start: w.Start, End: w.End}.String()
		if free, err := m.day.FreeMinutes(w); err == nil {
			info += "  free " + formatMinutes(free)
		}
	}
	return m.line(title + " " + m.styles.HeaderStyle.Render(info))
}

func (m Model) renderAgenda() string {
	entries := m.day.Entries()
	if len(entries) == 0 {
		return m.line(m.styles.EmptyStyle.Render("Nothing scheduled. Press s to fill the day.")) + "\n"
	}

	current := -1
	if m.isToday() {
		now := m.now()
		minute := now.Hour()*60 + now.Minute()
		for i, e := range entries {
			if start, end := minutesOf(e); minute >= start && minute < end {
				current = i
				break
			}
		}
	}

	var b strings.Builder
	for i, e := range entries {
		b.WriteString(m.renderRow(i, e, i == current))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderBacklog() string {
	backlog := m.day.Unscheduled()
	if len(backlog) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.line(m.styles.SectionStyle.Render(fmt.Sprintf("Unscheduled (%d)", len(backlog)))))
	b.WriteString("\n")
	offset := len(m.day.Entries())
	for i, t := range backlog {
		e := task.Entry{Kind: task.EntryTask, Task: t}
		b.WriteString(m.renderRow(offset+i, e, false))
		b.WriteString("\n")
	}
	return b.String()
}

// renderRow draws one agenda or backlog line. index is the row's position
// for cursor highlighting.
func (m Model) renderRow(index int, e task.Entry, current bool) string {
	marker := "  "
	if current {
		marker = m.styles.CurrentStyle.Render("▶ ")
	}

	slot := "           "
	if e.Start != "" {
		slot = e.Start + "-" + e.End
	}
	slot = m.styles.TimeStyle.Render(slot)

	var body string
	if e.Kind == task.EntryFixed {
		text := e.Fixed.Title
		if e.Fixed.Location != "" {
			text += " @ " + e.Fixed.Location
		}
		body = m.styles.FixedStyle.Render(" " + text + " ")
	} else {
		body = m.renderTask(e.Task)
	}

	line := m.line(marker + slot + "  " + body)
	if index == m.cursor && m.mode == ModeNormal {
		line = m.styles.SelectedStyle.Render(ansi.Strip(line))
	}
	return line
}

func (m Model) renderTask(t *task.Task) string {
	badge := "?"
	if t.Priority != "" {
		badge = strings.ToUpper(string(t.Priority)[:1])
	}
	text := fmt.Sprintf("%s  %s  %s", t.Content, t.EstimatedDuration, t.Category)
	if t.Deadline != nil {
		text += "  due " + dateutil.FormatDate(*t.Deadline)
	}
	if t.IsCompleted() {
		return m.styles.DoneStyle.Render("✓ " + text)
	}
	return m.styles.Priority(t.Priority).Render("["+badge+"]") + " " + text
}

func (m Model) renderFooter() string {
	var lines []string

	if m.mode == ModePrompt {
		lines = append(lines, m.line(m.prompt.View()))
		if matches := promptHints(m.prompt.Value()); matches != "" {
			lines = append(lines, m.line(m.styles.HelpStyle.Render(matches)))
		}
	}

	switch {
	case m.err != nil:
		lines = append(lines, m.line(m.styles.ErrorStyle.Render("error: "+m.err.Error())))
	case m.statusMsg != "":
		lines = append(lines, m.line(m.styles.StatusStyle.Render(m.statusMsg)))
	}

	lines = append(lines, m.line(m.styles.HelpStyle.Render(helpText)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// line truncates s to the terminal width.
func (m Model) line(s string) string {
	if m.width <= 0 {
		return s
	}
	return ansi.Truncate(s, m.width, "…")
}

func minutesOf(e task.Entry) (int, int) {
	start, err1 := scheduler.TimeToMinutes(e.Start)
	end, err2 := scheduler.TimeToMinutes(e.End)
	if err1 != nil || err2 != nil {
		return -1, -1
	}
	return start, end
}

func formatMinutes(total int) string {
	h, m := total/60, total%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, m)
	}
}
