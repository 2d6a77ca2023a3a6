// Package theme provides color themes for the TUI.
package theme

import (
	"embed"
	"fmt"
	"strings"

	"github.com/muesli/termenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/daybook/internal/task"
)

//go:embed embedded/*.toml
var embeddedThemes embed.FS

// Theme names. Auto picks dark or light from the terminal background.
const (
	Auto  = "auto"
	Dark  = "dark"
	Light = "light"
)

// hasDarkBackground is swapped in tests.
var hasDarkBackground = termenv.HasDarkBackground

// Theme holds all colors for a TUI theme.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`
	BgHighlight string `toml:"bg_highlight"` // unscheduled panel
	BgSelection string `toml:"bg_selection"` // cursor
	Fg          string `toml:"fg"`
	FgMuted     string `toml:"fg_muted"` // completed tasks, hints
	Accent      string `toml:"accent"`   // title, borders
	High        string `toml:"high"`
	Medium      string `toml:"medium"`
	Low         string `toml:"low"`
	Fixed       string `toml:"fixed"`   // fixed schedules
	Current     string `toml:"current"` // entry under the clock
	Warning     string `toml:"warning"` // errors, leftovers
}

// PriorityColor returns the hex color for p.
func (t *Theme) PriorityColor(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return t.High
	case task.PriorityLow:
		return t.Low
	default:
		return t.Medium
	}
}

// Resolve maps a configured theme name to an embedded one.
func Resolve(name string) string {
	switch name = strings.ToLower(strings.TrimSpace(name)); name {
	case Dark, Light:
		return name
	default:
		if hasDarkBackground() {
			return Dark
		}
		return Light
	}
}

// Load loads a theme by name from embedded files. "auto", empty and
// unknown names resolve against the terminal background.
func Load(name string) (*Theme, error) {
	name = Resolve(name)

	data, err := embeddedThemes.ReadFile("embedded/" + name + ".toml")
	if err != nil {
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	return &t, nil
}

// Available returns the theme names accepted in config.
func Available() []string {
	return []string{Auto, Dark, Light}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	name = strings.ToLower(name)
	for _, themeName := range Available() {
		if themeName == name {
			return true
		}
	}
	return false
}
