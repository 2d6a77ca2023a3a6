package scheduler

import (
	"fmt"
)

// Window bounds the part of the day tasks may be placed in.
type Window struct {
	Start int
	End   int
}

// NewWindow builds a Window from "HH:MM" bounds.
// An end of "24:00" is accepted as midnight at the end of the day.
func NewWindow(start, end string) (Window, error) {
	s, err := TimeToMinutes(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := windowEnd(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	w := Window{Start: s, End: e}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func windowEnd(s string) (int, error) {
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	return TimeToMinutes(s)
}

// Validate checks 0 <= Start < End <= 1440.
func (w Window) Validate() error {
	if w.Start < 0 || w.End > MinutesPerDay || w.Start >= w.End {
		return fmt.Errorf("%w: %d-%d", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// Contains reports whether iv lies entirely inside the window.
func (w Window) Contains(iv Interval) bool {
	return iv.Start >= w.Start && iv.End <= w.End
}

// Len returns the window length in minutes.
func (w Window) Len() int {
	return w.End - w.Start
}

// Reasons attached to unscheduled assignments.
const (
	ReasonInvalidDuration = "invalid duration"
	ReasonNoSlot          = "no free slot in the work window"
)

// Assignment is the outcome for a single task.
type Assignment struct {
	TaskID    string
	Scheduled bool
	Start     int
	End       int
	Reason    string // set when Scheduled is false
}

// Interval returns the assigned interval.
func (a Assignment) Interval() Interval {
	return Interval{Start: a.Start, End: a.End}
}

// Result holds one Assignment per input task.
type Result struct {
	Assignments map[string]Assignment
	Order       []string // task ids in processing order
}

// Scheduled returns the scheduled assignments in processing order.
func (r Result) Scheduled() []Assignment {
	return r.filter(true)
}

// Unscheduled returns the tasks that did not get a slot, in processing order.
func (r Result) Unscheduled() []Assignment {
	return r.filter(false)
}

func (r Result) filter(scheduled bool) []Assignment {
	var out []Assignment
	for _, id := range r.Order {
		if a := r.Assignments[id]; a.Scheduled == scheduled {
			out = append(out, a)
		}
	}
	return out
}

// Allocate places each item into the earliest free interval of the window,
// in Order order, without revisiting earlier decisions.
//
// The cursor only moves forward: after a task is placed, later tasks never
// consider gaps before its end. A task that does not fit is reported as
// unscheduled and leaves the cursor where it was. busy is not modified.
func Allocate(items []Item, busy BusySet, window Window) (Result, error) {
	if err := window.Validate(); err != nil {
		return Result{}, err
	}

	result := Result{
		Assignments: make(map[string]Assignment, len(items)),
		Order:       make([]string, 0, len(items)),
	}
	for _, it := range items {
		if _, dup := result.Assignments[it.ID]; dup {
			return Result{}, fmt.Errorf("%w: %q", ErrDuplicateTask, it.ID)
		}
		result.Assignments[it.ID] = Assignment{TaskID: it.ID}
	}

	occupied := busy.Clone()
	occupied.sort()
	cursor := window.Start

	for _, it := range Order(items) {
		result.Order = append(result.Order, it.ID)

		if it.Duration <= 0 {
			result.Assignments[it.ID] = Assignment{TaskID: it.ID, Reason: ReasonInvalidDuration}
			continue
		}

		if it.Duration > window.Len() {
			result.Assignments[it.ID] = Assignment{TaskID: it.ID, Reason: ReasonNoSlot}
			continue
		}

		start, ok := findSlot(cursor, it.Duration, window.End, occupied)
		if !ok {
			result.Assignments[it.ID] = Assignment{TaskID: it.ID, Reason: ReasonNoSlot}
			continue
		}

		end := start + it.Duration
		result.Assignments[it.ID] = Assignment{TaskID: it.ID, Scheduled: true, Start: start, End: end}
		occupied = append(occupied, Interval{Start: start, End: end})
		occupied.sort()
		cursor = end
	}

	return result, nil
}

// findSlot scans busy in start order for the first gap of length duration at
// or after cursor. The slot must also end by workEnd, including when the gap
// sits before a busy interval that starts after the window closes.
// Comparisons subtract from the bounds so a huge duration cannot wrap.
func findSlot(cursor, duration, workEnd int, busy BusySet) (int, bool) {
	for _, b := range busy {
		if duration <= b.Start-cursor {
			break
		}
		if cursor < b.End {
			cursor = b.End
		}
	}
	if duration <= workEnd-cursor {
		return cursor, true
	}
	return 0, false
}

// ConflictKind describes why a proposed interval was rejected.
type ConflictKind string

const (
	ConflictOutsideWindow ConflictKind = "outside_window"
	ConflictBusy          ConflictKind = "busy"
	ConflictProposed      ConflictKind = "proposed"
)

// Conflict reports a problem with proposed[Index].
type Conflict struct {
	Index     int
	Kind      ConflictKind
	With      Interval
	WithIndex int // index of the other proposal for ConflictProposed, -1 otherwise
}

// CheckOverlaps validates a schedule produced outside the allocator.
// Every proposed interval must lie inside window, must not overlap busy, and
// must not overlap another proposal. Conflicts are reported in index order.
func CheckOverlaps(proposed []Interval, busy BusySet, window Window) []Conflict {
	var conflicts []Conflict
	for i, iv := range proposed {
		if !window.Contains(iv) {
			conflicts = append(conflicts, Conflict{
				Index:     i,
				Kind:      ConflictOutsideWindow,
				With:      Interval{Start: window.Start, End: window.End},
				WithIndex: -1,
			})
		}
		if b, ok := busy.FirstOverlap(iv); ok {
			conflicts = append(conflicts, Conflict{Index: i, Kind: ConflictBusy, With: b, WithIndex: -1})
		}
		for j := 0; j < i; j++ {
			if proposed[j].Overlaps(iv) {
				conflicts = append(conflicts, Conflict{Index: i, Kind: ConflictProposed, With: proposed[j], WithIndex: j})
				break
			}
		}
	}
	return conflicts
}
