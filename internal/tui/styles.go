package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/daybook/internal/task"
	"github.com/javiermolinar/daybook/internal/tui/theme"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	TitleStyle   lipgloss.Style
	HeaderStyle  lipgloss.Style
	SectionStyle lipgloss.Style

	TimeStyle     lipgloss.Style
	FixedStyle    lipgloss.Style
	DoneStyle     lipgloss.Style
	SelectedStyle lipgloss.Style
	CurrentStyle  lipgloss.Style
	EmptyStyle    lipgloss.Style

	ReplyStyle  lipgloss.Style
	StatusStyle lipgloss.Style
	ErrorStyle  lipgloss.Style
	HelpStyle   lipgloss.Style
	PromptStyle lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)

	return &Styles{
		palette: p,

		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.TextOnAccent).
			Background(p.Accent).
			Padding(0, 1),
		HeaderStyle:  lipgloss.NewStyle().Foreground(p.Fg).Bold(true),
		SectionStyle: lipgloss.NewStyle().Foreground(p.Accent).Bold(true).MarginTop(1),

		TimeStyle:  lipgloss.NewStyle().Foreground(p.FgMuted),
		FixedStyle: lipgloss.NewStyle().Foreground(p.Fixed).Background(p.FixedBg),
		DoneStyle:  lipgloss.NewStyle().Foreground(p.FgMuted).Strikethrough(true),
		SelectedStyle: lipgloss.NewStyle().
			Background(p.BgSelection).
			Foreground(p.Fg),
		CurrentStyle: lipgloss.NewStyle().Foreground(p.Current).Bold(true),
		EmptyStyle:   lipgloss.NewStyle().Foreground(p.FgMuted).Italic(true),

		ReplyStyle: lipgloss.NewStyle().
			Foreground(p.Fg).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(0, 1),
		StatusStyle: lipgloss.NewStyle().Foreground(p.Accent),
		ErrorStyle:  lipgloss.NewStyle().Foreground(p.Warning).Bold(true),
		HelpStyle:   lipgloss.NewStyle().Foreground(p.FgMuted),
		PromptStyle: lipgloss.NewStyle().Foreground(p.Fg),
	}
}

// Priority returns the style for a task of priority prio.
func (s *Styles) Priority(prio task.Priority) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.palette.Priority(prio))
}
