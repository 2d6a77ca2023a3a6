// Package scheduler implements the local greedy time-slot allocator.
//
// Everything here is pure: no I/O, no shared state. Times are minute offsets
// from midnight and a single run owns its busy set.
package scheduler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 24 * 60

// DefaultDurationMinutes is used when a duration token cannot be understood.
const DefaultDurationMinutes = 60

// Conversion and allocation errors.
var (
	ErrFormat          = errors.New("time must be in HH:MM format")
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
	ErrInvalidWindow   = errors.New("work window start must be before end")
	ErrInvalidPriority = errors.New("priority must be 'high', 'medium' or 'low'")
	ErrDuplicateTask   = errors.New("duplicate task id")
)

var durationPattern = regexp.MustCompile(`^(\d+)([hm])$`)

// TimeToMinutes converts "HH:MM" to minutes since midnight.
// Hours must be 00-23 and minutes 00-59.
func TimeToMinutes(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: got %q", ErrFormat, s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: got %q", ErrFormat, s)
		}
	}
	hours := int(s[0]-'0')*10 + int(s[1]-'0')
	mins := int(s[3]-'0')*10 + int(s[4]-'0')
	if hours > 23 || mins > 59 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrFormat, s)
	}
	return hours*60 + mins, nil
}

// MinutesToTime converts minutes since midnight to "HH:MM".
func MinutesToTime(m int) (string, error) {
	if m < 0 || m >= MinutesPerDay {
		return "", fmt.Errorf("%w: %d minutes is outside the day", ErrFormat, m)
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}

// FormatMinutes is MinutesToTime for values already known to be in range.
// A work window may end at 24:00, so 1440 formats as "24:00".
func FormatMinutes(m int) string {
	if m == MinutesPerDay {
		return "24:00"
	}
	s, err := MinutesToTime(m)
	if err != nil {
		return fmt.Sprintf("%d", m)
	}
	return s
}

// DurationToMinutes converts a duration token such as "30m" or "2h" to minutes.
// Unrecognized tokens and anything longer than a day silently fall back to
// DefaultDurationMinutes.
func DurationToMinutes(tok string) int {
	n, err := parseDurationToken(tok)
	if err != nil {
		return DefaultDurationMinutes
	}
	return n
}

// ParseDuration is the strict form of DurationToMinutes used when accepting
// new tasks. It rejects unrecognized and non-positive durations.
func ParseDuration(tok string) (int, error) {
	n, err := parseDurationToken(tok)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidDuration, tok)
	}
	return n, nil
}

func parseDurationToken(tok string) (int, error) {
	match := durationPattern.FindStringSubmatch(tok)
	if match == nil {
		return 0, fmt.Errorf("%w: %q is not like 30m or 2h", ErrInvalidDuration, tok)
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, tok)
	}
	if match[2] == "h" {
		if n > MinutesPerDay/60 {
			return 0, fmt.Errorf("%w: %q is longer than a day", ErrInvalidDuration, tok)
		}
		n *= 60
	}
	if n > MinutesPerDay {
		return 0, fmt.Errorf("%w: %q is longer than a day", ErrInvalidDuration, tok)
	}
	return n, nil
}
