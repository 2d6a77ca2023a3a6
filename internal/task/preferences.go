package task

import (
	"fmt"

	"github.com/javiermolinar/daybook/internal/scheduler"
)

// Preferences holds the single user's scheduling preferences.
type Preferences struct {
	WorkStart            string // "HH:MM"
	WorkEnd              string // "HH:MM"
	BreakDuration        string // "15m"
	FocusPreference      string // free text, e.g. "morning"
	EnableMainChat       bool   // proactive greetings and reminders
	SleepReminderTime    string // "HH:MM"
	AutoRescheduleOnDrag bool
}

// DefaultPreferences returns the preferences a fresh database starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		WorkStart:         "09:00",
		WorkEnd:           "18:00",
		BreakDuration:     "15m",
		EnableMainChat:    true,
		SleepReminderTime: "22:00",
	}
}

// Validate checks time formats and that the work window is not empty.
func (p Preferences) Validate() error {
	if _, err := p.Window(); err != nil {
		return err
	}
	if _, err := scheduler.TimeToMinutes(p.SleepReminderTime); err != nil {
		return fmt.Errorf("sleep reminder time: %w", err)
	}
	if p.BreakDuration != "" {
		if _, err := scheduler.ParseDuration(p.BreakDuration); err != nil {
			return fmt.Errorf("break duration: %w", err)
		}
	}
	return nil
}

// Window returns the work window for the allocator.
func (p Preferences) Window() (scheduler.Window, error) {
	return scheduler.NewWindow(p.WorkStart, p.WorkEnd)
}
