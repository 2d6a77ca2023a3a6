package scheduler

import (
	"sort"
	"time"
)

// Interval is a half-open range [Start, End) in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Len returns the interval length in minutes.
func (i Interval) Len() int {
	return i.End - i.Start
}

// Overlaps reports whether two intervals share at least one minute.
// Touching intervals (one ends where the other starts) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// String formats the interval as "HH:MM-HH:MM".
func (i Interval) String() string {
	return FormatMinutes(i.Start) + "-" + FormatMinutes(i.End)
}

// FixedInterval is a recurring appointment that tasks may not overlap.
// Weekday uses time.Weekday numbering: 0=Sunday through 6=Saturday.
type FixedInterval struct {
	Weekday time.Weekday
	Start   int
	End     int
	Title   string
}

// BusySet is a collection of occupied intervals kept sorted by start.
// Entries may overlap each other; the allocator only needs to know whether a
// candidate range is free.
type BusySet []Interval

// BuildBusy returns the fixed intervals that fall on weekday, sorted by start.
// Overlapping entries are kept as-is.
func BuildBusy(weekday time.Weekday, fixed []FixedInterval) BusySet {
	busy := make(BusySet, 0, len(fixed))
	for _, f := range fixed {
		if f.Weekday != weekday {
			continue
		}
		busy = append(busy, Interval{Start: f.Start, End: f.End})
	}
	busy.sort()
	return busy
}

// With returns a copy of the set that also contains iv.
func (b BusySet) With(iv Interval) BusySet {
	out := make(BusySet, len(b), len(b)+1)
	copy(out, b)
	out = append(out, iv)
	out.sort()
	return out
}

// Clone returns an independent copy of the set.
func (b BusySet) Clone() BusySet {
	out := make(BusySet, len(b))
	copy(out, b)
	return out
}

// FirstOverlap returns the first busy interval overlapping iv.
func (b BusySet) FirstOverlap(iv Interval) (Interval, bool) {
	for _, busy := range b {
		if busy.Overlaps(iv) {
			return busy, true
		}
	}
	return Interval{}, false
}

func (b BusySet) sort() {
	sort.SliceStable(b, func(i, j int) bool {
		return b[i].Start < b[j].Start
	})
}
