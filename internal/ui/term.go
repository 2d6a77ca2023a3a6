package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/daybook/internal/task"
)

// Color definitions for consistent styling across the UI.
var (
	colorHigh   = color.New(color.FgRed, color.Bold)
	colorMedium = color.New(color.FgYellow)
	colorLow    = color.New(color.FgGreen)

	// Fixed schedules: cyan, they never move
	colorFixed = color.New(color.FgCyan)

	// Insight/assistant replies: yellow to make it pop
	colorInsight = color.New(color.FgYellow)

	colorHeader = color.New(color.Bold)
	colorStats  = color.New(color.FgGreen)
	colorMuted  = color.New(color.FgWhite, color.Faint)
	colorError  = color.New(color.FgRed)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

func formatPriority(p task.Priority, s string) string {
	switch p {
	case task.PriorityHigh:
		return colorHigh.Sprint(s)
	case task.PriorityLow:
		return colorLow.Sprint(s)
	default:
		return colorMedium.Sprint(s)
	}
}

func formatFixed(s string) string   { return colorFixed.Sprint(s) }
func formatInsight(s string) string { return colorInsight.Sprint(s) }
func formatHeader(s string) string  { return colorHeader.Sprint(s) }
func formatStats(s string) string   { return colorStats.Sprint(s) }
func formatMuted(s string) string   { return colorMuted.Sprint(s) }
func formatError(s string) string   { return colorError.Sprint(s) }
