// Package tui provides the terminal day agenda for daybook.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/planner"
	"github.com/javiermolinar/daybook/internal/task"
	"github.com/javiermolinar/daybook/internal/tui/commands"
	"github.com/javiermolinar/daybook/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModePrompt
)

const statusTTL = 4 * time.Second

// row is one selectable line: an agenda entry or a backlog task.
type row struct {
	entry task.Entry
}

// Model is the main TUI model.
type Model struct {
	// Dependencies
	svc        *planner.Service
	maxRetries int
	now        func() time.Time

	// Theme and styles
	theme  *theme.Theme
	styles *Styles

	// State
	date    time.Time
	day     *task.Day
	prefs   task.Preferences
	rows    []row
	cursor  int
	mode    Mode
	loading bool // an LLM or allocator call is in flight

	prompt textinput.Model
	reply  string // last assistant reply

	// Messages
	statusMsg string
	err       error

	width  int
	height int
}

// Options configures a Model.
type Options struct {
	Theme      string // "auto", "dark" or "light"
	MaxRetries int    // optimizer retries after the first proposal
	Now        func() time.Time
}

// New creates a new TUI model showing today.
func New(svc *planner.Service, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t, err := theme.Load(opts.Theme)
	if err != nil {
		t, _ = theme.Load(theme.Dark)
	}
	styles := NewStyles(t)

	ti := textinput.New()
	ti.Placeholder = "ask something, or /add, /schedule, /optimize"
	ti.CharLimit = 512
	ti.PromptStyle = styles.PromptStyle
	ti.TextStyle = styles.PromptStyle

	return Model{
		svc:        svc,
		maxRetries: opts.MaxRetries,
		now:        opts.Now,
		theme:      t,
		styles:     styles,
		date:       dateutil.TruncateToDay(opts.Now()),
		prompt:     ti,
		width:      80,
		height:     24,
	}
}

// Init loads the first day.
func (m Model) Init() tea.Cmd {
	return commands.LoadDay(m.svc, m.date)
}

// Run starts the TUI and blocks until the user quits.
func Run(svc *planner.Service, opts Options) error {
	p := tea.NewProgram(New(svc, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// selected returns the row under the cursor.
func (m Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

// setDay replaces the loaded day and keeps the cursor in range.
func (m *Model) setDay(day *task.Day, prefs task.Preferences) {
	m.day = day
	m.prefs = prefs
	entries, backlog := day.Entries(), day.Unscheduled()
	m.rows = make([]row, 0, len(entries)+len(backlog))
	for _, e := range entries {
		m.rows = append(m.rows, row{entry: e})
	}
	for _, t := range backlog {
		m.rows = append(m.rows, row{entry: task.Entry{Kind: task.EntryTask, Task: t}})
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) isToday() bool {
	return dateutil.SameDay(m.date, m.now())
}

func (m Model) today() time.Time {
	return dateutil.TruncateToDay(m.now())
}
