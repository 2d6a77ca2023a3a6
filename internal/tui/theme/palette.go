package theme

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/daybook/internal/task"
)

// Palette holds precomputed colors derived from a Theme.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Fixed       lipgloss.Color
	Current     lipgloss.Color
	Warning     lipgloss.Color

	High   lipgloss.Color
	Medium lipgloss.Color
	Low    lipgloss.Color

	// FixedBg tints fixed schedule rows so they read as busy time.
	FixedBg lipgloss.Color

	TextOnAccent  lipgloss.Color
	TextOnCurrent lipgloss.Color
}

// NewPalette derives a Palette from the provided Theme.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load(Dark)
	}

	isLight := isLightTheme(t.Bg)
	fixedRatio := 0.80
	if isLight {
		fixedRatio = 0.85
	}

	return &Palette{
		Bg:          lipgloss.Color(t.Bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          lipgloss.Color(t.Fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Fixed:       lipgloss.Color(t.Fixed),
		Current:     lipgloss.Color(t.Current),
		Warning:     lipgloss.Color(t.Warning),

		High:   lipgloss.Color(t.High),
		Medium: lipgloss.Color(t.Medium),
		Low:    lipgloss.Color(t.Low),

		FixedBg: lipgloss.Color(blendColors(t.Fixed, t.Bg, fixedRatio)),

		TextOnAccent:  lipgloss.Color(chooseTextColor(t.Accent, t.Bg, t.Fg)),
		TextOnCurrent: lipgloss.Color(chooseTextColor(t.Current, t.Bg, t.Fg)),
	}
}

// Priority returns the color for p.
func (p *Palette) Priority(prio task.Priority) lipgloss.Color {
	switch prio {
	case task.PriorityHigh:
		return p.High
	case task.PriorityLow:
		return p.Low
	default:
		return p.Medium
	}
}

func isLightTheme(bg string) bool {
	c, ok := parseRGB(bg)
	return ok && c.luminance() > 0.55
}

// rgb is a color with channels in 0..255.
type rgb struct{ r, g, b float64 }

// parseRGB reads a "#rrggbb" string.
func parseRGB(hex string) (rgb, bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{float64(v >> 16 & 0xff), float64(v >> 8 & 0xff), float64(v & 0xff)}, true
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", int(c.r), int(c.g), int(c.b))
}

// luminance is the WCAG relative luminance.
func (c rgb) luminance() float64 {
	linear := func(v float64) float64 {
		v /= 255
		if v <= 0.04045 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*linear(c.r) + 0.7152*linear(c.g) + 0.0722*linear(c.b)
}

// chooseTextColor picks whichever candidate contrasts more with bg.
func chooseTextColor(bg, first, second string) string {
	if contrastRatio(bg, first) >= contrastRatio(bg, second) {
		return first
	}
	return second
}

func contrastRatio(a, b string) float64 {
	ca, _ := parseRGB(a)
	cb, _ := parseRGB(b)
	l1, l2 := ca.luminance(), cb.luminance()
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// blendColors mixes b into a; ratio 0 keeps a, 1 gives b. Anything that is
// not "#rrggbb" is returned unchanged.
func blendColors(a, b string, ratio float64) string {
	ca, okA := parseRGB(a)
	cb, okB := parseRGB(b)
	if !okA || !okB {
		return a
	}
	ratio = math.Max(0, math.Min(1, ratio))
	mix := func(x, y float64) float64 { return x*(1-ratio) + y*ratio }
	return rgb{mix(ca.r, cb.r), mix(ca.g, cb.g), mix(ca.b, cb.b)}.hex()
}
