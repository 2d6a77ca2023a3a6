// Package dateutil provides date parsing helpers for deadlines and --date flags.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// Validation errors.
var (
	ErrInvalidDateFormat = errors.New("date must be YYYY-MM-DD, a weekday name, today, tomorrow or +Nd")
	ErrInvalidWeekday    = errors.New("weekday must be 0-6 (0=Sunday) or a weekday name")
)

var weekdayMap = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sun":       time.Sunday,
	"mon":       time.Monday,
	"tue":       time.Tuesday,
	"wed":       time.Wednesday,
	"thu":       time.Thursday,
	"fri":       time.Friday,
	"sat":       time.Saturday,
}

// TruncateToDay returns t with the time of day set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate resolves a date relative to now. Accepted forms (case-insensitive):
//   - "" or "today"
//   - "tomorrow", "yesterday"
//   - weekday names ("monday", "fri"): the next occurrence, never today
//   - "+Nd": N days from today
//   - "YYYY-MM-DD"
//
// The result is truncated to midnight in now's location.
func ParseDate(s string, now time.Time) (time.Time, error) {
	today := TruncateToDay(now)
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if wd, ok := weekdayMap[strings.TrimPrefix(input, "next-")]; ok {
		return nextWeekday(today, wd), nil
	}

	if strings.HasPrefix(input, "+") && strings.HasSuffix(input, "d") {
		n, err := strconv.Atoi(input[1 : len(input)-1])
		if err != nil || n < 0 {
			return time.Time{}, ErrInvalidDateFormat
		}
		return today.AddDate(0, 0, n), nil
	}

	t, err := time.ParseInLocation(DateLayout, input, now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// ParseDeadline parses a deadline that may carry a time of day.
// It accepts everything ParseDate does plus RFC 3339 and "YYYY-MM-DDTHH:MM".
func ParseDeadline(s string, now time.Time) (time.Time, error) {
	input := strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, input, now.Location()); err == nil {
			return t, nil
		}
	}
	return ParseDate(input, now)
}

// ParseWeekday accepts 0-6 (0=Sunday, matching time.Weekday) or a weekday name.
func ParseWeekday(s string) (time.Weekday, error) {
	input := strings.ToLower(strings.TrimSpace(s))
	if wd, ok := weekdayMap[input]; ok {
		return wd, nil
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 0 || n > 6 {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidWeekday, s)
	}
	return time.Weekday(n), nil
}

// nextWeekday returns the next occurrence of target strictly after today.
func nextWeekday(today time.Time, target time.Weekday) time.Time {
	days := (int(target) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}
