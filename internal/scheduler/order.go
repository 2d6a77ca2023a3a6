package scheduler

import (
	"fmt"
	"sort"
	"strings"
)

// Priority is the closed set of task priorities.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// NoDeadline sorts after every real ISO date.
const NoDeadline = "9999-12-31"

// ParsePriority parses a priority name. Unknown names are rejected rather
// than defaulted.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidPriority, s)
	}
}

// Valid returns true if p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank returns 3 for high, 2 for medium and 1 for low.
// The zero value ranks as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Item is one task handed to the allocator.
type Item struct {
	ID       string
	Priority Priority
	Duration int    // minutes
	Deadline string // ISO date or date-time, empty when absent
}

func (it Item) deadlineKey() string {
	if it.Deadline == "" {
		return NoDeadline
	}
	return it.Deadline
}

// Order returns items sorted by priority (high first), then by deadline
// (earliest first, undated last). Equal keys keep their input order.
// The input slice is not modified.
func Order(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].deadlineKey() < out[j].deadlineKey()
	})
	return out
}
