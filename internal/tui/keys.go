package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/daybook/internal/task"
	"github.com/javiermolinar/daybook/internal/tui/commands"
	"github.com/javiermolinar/daybook/internal/tui/input"
)

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.mode == ModePrompt {
		return m.handlePromptKeys(msg)
	}
	return m.handleNormalKeys(msg)
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "h", "left":
		return m.changeDay(-1)
	case "l", "right":
		return m.changeDay(1)
	case "t":
		m.date = m.today()
		return m, commands.LoadDay(m.svc, m.date)

	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "s":
		return m.startWork("Scheduling...", commands.AutoSchedule(m.svc, m.date))
	case "o":
		return m.startWork("Asking the assistant for a plan...", commands.Optimize(m.svc, m.date, m.maxRetries))

	case " ":
		t, ok := m.selectedTask()
		if !ok {
			return m.setStatus("Select a task first")
		}
		if t.IsCompleted() {
			return m.setStatus("Already completed")
		}
		return m, commands.CompleteTask(m.svc, t, m.now())
	case "d":
		t, ok := m.selectedTask()
		if !ok {
			return m.setStatus("Select a task first")
		}
		return m, commands.DeleteTask(m.svc, t)

	case "c":
		return m.openPrompt("")
	case "a":
		return m.openPrompt(input.CmdAdd + " ")

	case "y":
		if m.day == nil {
			return m, nil
		}
		return m, commands.CopyToClipboard(AgendaText(m.day))

	case "esc":
		m.reply = ""
		m.err = nil
	}
	return m, nil
}

func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.prompt.Blur()
		m.prompt.Reset()
		return m, nil

	case "tab":
		if value, ok := input.Complete(m.prompt.Value()); ok {
			m.prompt.SetValue(value)
			m.prompt.CursorEnd()
		}
		return m, nil

	case "enter":
		line := m.prompt.Value()
		m.mode = ModeNormal
		m.prompt.Blur()
		m.prompt.Reset()
		return m.submitPrompt(line)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) submitPrompt(line string) (tea.Model, tea.Cmd) {
	cmd, arg := input.Parse(line)
	switch cmd {
	case input.CmdChat:
		if arg == "" {
			return m, nil
		}
		return m.startWork("Thinking...", commands.Chat(m.svc, arg))
	case input.CmdAdd:
		if arg == "" {
			return m.setStatus("Usage: /add <task description>")
		}
		return m.startWork("Adding task...", commands.AddFromText(m.svc, arg))
	case input.CmdSchedule:
		return m.startWork("Scheduling...", commands.AutoSchedule(m.svc, m.date))
	case input.CmdOptimize:
		return m.startWork("Asking the assistant for a plan...", commands.Optimize(m.svc, m.date, m.maxRetries))
	default:
		return m.setStatus("Unknown command " + cmd)
	}
}

func (m Model) openPrompt(value string) (tea.Model, tea.Cmd) {
	m.mode = ModePrompt
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	return m, m.prompt.Focus()
}

func (m Model) changeDay(delta int) (tea.Model, tea.Cmd) {
	m.date = m.date.AddDate(0, 0, delta)
	m.cursor = 0
	return m, commands.LoadDay(m.svc, m.date)
}

// startWork runs cmd unless another long call is in flight.
func (m Model) startWork(status string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.loading {
		return m.setStatus("Still working...")
	}
	m.loading = true
	m.statusMsg = status
	m.err = nil
	return m, cmd
}

func (m Model) setStatus(msg string) (tea.Model, tea.Cmd) {
	m.statusMsg = msg
	return m, commands.ClearStatusAfter(statusTTL)
}

func (m Model) selectedTask() (*task.Task, bool) {
	r, ok := m.selected()
	if !ok || r.entry.Kind != task.EntryTask {
		return nil, false
	}
	return r.entry.Task, true
}
