package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/daybook/internal/planner"
	"github.com/javiermolinar/daybook/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prompt.Width = max(msg.Width-4, 10)
		return m, nil

	case commands.DayLoadedMsg:
		m.setDay(msg.Day, msg.Prefs)
		return m, nil

	case commands.ScheduledMsg:
		m.loading = false
		r := msg.Report
		status := fmt.Sprintf("Scheduled %d task(s)", len(r.Scheduled))
		if n := len(r.Unscheduled); n > 0 {
			status += fmt.Sprintf(", %d did not fit", n)
		}
		m.statusMsg = status
		return m, tea.Batch(commands.LoadDay(m.svc, m.date), commands.ClearStatusAfter(statusTTL))

	case commands.OptimizedMsg:
		m.loading = false
		m.statusMsg = fmt.Sprintf("Assistant placed %d task(s) in %d attempt(s)", len(msg.Result.Slots), msg.Result.Attempts)
		if len(msg.Result.Slots) == 0 && msg.Result.Attempts == 0 {
			m.statusMsg = "Nothing to place"
		}
		return m, tea.Batch(commands.LoadDay(m.svc, m.date), commands.ClearStatusAfter(statusTTL))

	case commands.ChatReplyMsg:
		m.loading = false
		m.statusMsg = ""
		m.reply = msg.Reply
		return m, nil

	case commands.StatusMsg:
		m.loading = false
		m.statusMsg = msg.Msg
		cmds := []tea.Cmd{commands.ClearStatusAfter(statusTTL)}
		if msg.Reload {
			cmds = append(cmds, commands.LoadDay(m.svc, m.date))
		}
		return m, tea.Batch(cmds...)

	case commands.ClearStatusMsg:
		if !m.loading {
			m.statusMsg = ""
		}
		return m, nil

	case commands.ErrMsg:
		m.loading = false
		m.statusMsg = ""
		m.err = friendlyError(msg.Err)
		return m, nil
	}

	return m, nil
}

func friendlyError(err error) error {
	switch {
	case errors.Is(err, planner.ErrNoLLM):
		return errors.New("no LLM configured, set [llm] provider in the config")
	case errors.Is(err, planner.ErrMaxRetriesExceeded):
		return errors.New("the assistant could not produce a valid schedule, try again or press s")
	}
	return err
}
