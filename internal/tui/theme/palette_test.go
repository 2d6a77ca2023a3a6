package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/daybook/internal/task"
)

func TestNewPalette(t *testing.T) {
	base := &Theme{
		Bg:      "#000000",
		Fg:      "#ffffff",
		Accent:  "#ffffff",
		High:    "#ff0000",
		Medium:  "#ffff00",
		Low:     "#00ff00",
		Fixed:   "#00ffff",
		Current: "#101010",
	}

	palette := NewPalette(base)

	if palette.Priority(task.PriorityHigh) != lipgloss.Color("#ff0000") {
		t.Errorf("Priority(high) = %q", palette.Priority(task.PriorityHigh))
	}
	if palette.Priority(task.PriorityLow) != lipgloss.Color("#00ff00") {
		t.Errorf("Priority(low) = %q", palette.Priority(task.PriorityLow))
	}
	if want := lipgloss.Color(blendColors(base.Fixed, base.Bg, 0.80)); palette.FixedBg != want {
		t.Errorf("FixedBg = %q, want %q", palette.FixedBg, want)
	}
	// Black text on a white accent, white text on a near-black current.
	if palette.TextOnAccent != lipgloss.Color(base.Bg) {
		t.Errorf("TextOnAccent = %q, want %q", palette.TextOnAccent, base.Bg)
	}
	if palette.TextOnCurrent != lipgloss.Color(base.Fg) {
		t.Errorf("TextOnCurrent = %q, want %q", palette.TextOnCurrent, base.Fg)
	}
}

func TestBlendColors(t *testing.T) {
	tests := []struct {
		a, b  string
		ratio float64
		want  string
	}{
		{"#000000", "#ffffff", 0, "#000000"},
		{"#000000", "#ffffff", 1, "#ffffff"},
		{"#000000", "#ffffff", 2, "#ffffff"},
		{"#102030", "#102030", 0.5, "#102030"},
		{"bad", "#ffffff", 0.5, "bad"},
	}
	for _, tt := range tests {
		if got := blendColors(tt.a, tt.b, tt.ratio); got != tt.want {
			t.Errorf("blendColors(%s, %s, %v) = %s, want %s", tt.a, tt.b, tt.ratio, got, tt.want)
		}
	}
}

func TestIsLightTheme(t *testing.T) {
	tests := map[string]bool{
		"#ffffff": true,
		"#eff1f5": true,
		"#1e1e2e": false,
		"#000000": false,
		"oops":    false,
	}
	for bg, want := range tests {
		if got := isLightTheme(bg); got != want {
			t.Errorf("isLightTheme(%q) = %v, want %v", bg, got, want)
		}
	}
}
