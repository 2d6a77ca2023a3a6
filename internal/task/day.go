package task

import (
	"fmt"
	"sort"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/scheduler"
)

// EntryKind distinguishes agenda rows.
type EntryKind int

const (
	EntryFixed EntryKind = iota
	EntryTask
)

// Entry is one row of a day's agenda.
type Entry struct {
	Kind  EntryKind
	Start string
	End   string
	Fixed *FixedSchedule // set for EntryFixed
	Task  *Task          // set for EntryTask
}

// Title returns the text shown for the entry.
func (e Entry) Title() string {
	if e.Kind == EntryFixed {
		return e.Fixed.Title
	}
	return e.Task.Content
}

// Day is the agenda for a single date: fixed schedules that recur on its
// weekday plus the tasks assigned to it, ordered by start time.
type Day struct {
	Date        time.Time
	entries     []Entry
	unscheduled []*Task
}

// NewDay builds the agenda for date. Tasks not assigned to date are ignored,
// except pending unscheduled tasks which are kept as the day's backlog.
func NewDay(date time.Time, fixed []*FixedSchedule, tasks []*Task) *Day {
	d := &Day{Date: dateutil.TruncateToDay(date)}

	for _, f := range fixed {
		if f.Weekday != d.Date.Weekday() {
			continue
		}
		d.entries = append(d.entries, Entry{Kind: EntryFixed, Start: f.Start, End: f.End, Fixed: f})
	}
	for _, t := range tasks {
		switch {
		case t.IsScheduledOn(d.Date):
			d.entries = append(d.entries, Entry{Kind: EntryTask, Start: t.ScheduledStart, End: t.ScheduledEnd, Task: t})
		case !t.IsScheduled() && t.IsPending():
			d.unscheduled = append(d.unscheduled, t)
		}
	}

	sort.SliceStable(d.entries, func(i, j int) bool {
		return d.entries[i].Start < d.entries[j].Start
	})
	return d
}

// Entries returns a copy of the agenda rows.
func (d *Day) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Unscheduled returns pending tasks that have no slot yet.
func (d *Day) Unscheduled() []*Task {
	out := make([]*Task, len(d.unscheduled))
	copy(out, d.unscheduled)
	return out
}

// Busy returns every occupied interval of the day, fixed and assigned.
// Completed tasks still occupy their slot.
func (d *Day) Busy() (scheduler.BusySet, error) {
	busy := make(scheduler.BusySet, 0, len(d.entries))
	for _, e := range d.entries {
		var (
			iv  scheduler.Interval
			err error
		)
		if e.Kind == EntryFixed {
			iv, err = e.Fixed.Interval()
		} else {
			iv, err = e.Task.Interval()
		}
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.Title(), err)
		}
		busy = append(busy, iv)
	}
	return busy, nil
}

// Current returns the entry in progress at the given minute, if any.
func (d *Day) Current(minute int) (Entry, bool) {
	for _, e := range d.entries {
		start, err1 := scheduler.TimeToMinutes(e.Start)
		end, err2 := scheduler.TimeToMinutes(e.End)
		if err1 != nil || err2 != nil {
			continue
		}
		if minute >= start && minute < end {
			return e, true
		}
	}
	return Entry{}, false
}

// FreeMinutes returns the unoccupied minutes of the window.
func (d *Day) FreeMinutes(w scheduler.Window) (int, error) {
	busy, err := d.Busy()
	if err != nil {
		return 0, err
	}
	// Walk the window marking occupied minutes once, since entries may overlap.
	covered := 0
	cursor := w.Start
	for _, b := range busy {
		start := max(b.Start, cursor)
		end := min(b.End, w.End)
		if end > start {
			covered += end - start
			cursor = end
		}
	}
	return w.Len() - covered, nil
}
