// Package task defines the core domain types for daybook.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/scheduler"
)

// Validation errors.
var (
	ErrEmptyContent      = errors.New("task content cannot be empty")
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrInvalidCategory   = errors.New("category must be 'work', 'study', 'life' or 'other'")
	ErrInvalidStatus     = errors.New("status must be 'pending' or 'completed'")
	ErrInvalidTimeFormat = scheduler.ErrFormat
	ErrInvalidDuration   = scheduler.ErrInvalidDuration
	ErrInvalidPriority   = scheduler.ErrInvalidPriority
	ErrEndBeforeStart    = errors.New("end time must be after start time")
)

// Domain errors.
var (
	ErrTimeBlockOverlap = errors.New("time block overlaps with an existing entry")
	ErrTaskNotFound     = errors.New("task not found")
	ErrFixedNotFound    = errors.New("fixed schedule not found")
)

// Status represents the state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Category groups tasks by area of life.
type Category string

const (
	CategoryWork  Category = "work"
	CategoryStudy Category = "study"
	CategoryLife  Category = "life"
	CategoryOther Category = "other"
)

// ParseCategory parses a category name. Empty input means other.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CategoryOther, nil
	case CategoryWork, CategoryStudy, CategoryLife, CategoryOther:
		return c, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidCategory, s)
	}
}

// Priority is re-exported from the allocator so callers need one import.
type Priority = scheduler.Priority

const (
	PriorityHigh   = scheduler.PriorityHigh
	PriorityMedium = scheduler.PriorityMedium
	PriorityLow    = scheduler.PriorityLow
)

// Task is a to-do item waiting for, or holding, a slot in the day.
type Task struct {
	ID                int64
	Content           string
	Category          Category
	Priority          Priority
	EstimatedDuration string     // "30m" or "2h"
	Deadline          *time.Time // optional
	ScheduledDate     *time.Time // nil until assigned
	ScheduledStart    string     // "HH:MM", empty until assigned
	ScheduledEnd      string     // "HH:MM", empty until assigned
	Status            Status
	CreatedAt         time.Time
	CompletedAt       *time.Time
}

// New creates a pending, unscheduled Task with validation.
// priority must be high, medium or low; duration must look like "30m" or "2h";
// deadline may be empty or anything dateutil.ParseDeadline accepts.
func New(content, category, priority, duration, deadline string) (*Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	cat, err := ParseCategory(category)
	if err != nil {
		return nil, err
	}

	prio, err := scheduler.ParsePriority(priority)
	if err != nil {
		return nil, err
	}

	if _, err := scheduler.ParseDuration(duration); err != nil {
		return nil, err
	}

	now := time.Now()
	t := &Task{
		Content:           content,
		Category:          cat,
		Priority:          prio,
		EstimatedDuration: duration,
		Status:            StatusPending,
		CreatedAt:         now,
	}

	if deadline != "" {
		d, err := dateutil.ParseDeadline(deadline, now)
		if err != nil {
			return nil, fmt.Errorf("deadline: %w", err)
		}
		t.Deadline = &d
	}

	return t, nil
}

// IsPending returns true if the task is not completed.
func (t *Task) IsPending() bool {
	return t.Status == StatusPending
}

// IsCompleted returns true if the task has been completed.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsScheduled returns true if the task has an assigned slot.
func (t *Task) IsScheduled() bool {
	return t.ScheduledDate != nil && t.ScheduledStart != ""
}

// IsScheduledOn returns true if the task is assigned to the given date.
func (t *Task) IsScheduledOn(date time.Time) bool {
	return t.IsScheduled() && dateutil.SameDay(*t.ScheduledDate, date)
}

// DurationMinutes returns the estimated duration in minutes.
// Unparsable estimates count as one hour.
func (t *Task) DurationMinutes() int {
	return scheduler.DurationToMinutes(t.EstimatedDuration)
}

// Interval returns the assigned slot in minutes since midnight.
func (t *Task) Interval() (scheduler.Interval, error) {
	start, err := scheduler.TimeToMinutes(t.ScheduledStart)
	if err != nil {
		return scheduler.Interval{}, fmt.Errorf("start time: %w", err)
	}
	end, err := scheduler.TimeToMinutes(t.ScheduledEnd)
	if err != nil {
		return scheduler.Interval{}, fmt.Errorf("end time: %w", err)
	}
	if end <= start {
		return scheduler.Interval{}, ErrEndBeforeStart
	}
	return scheduler.Interval{Start: start, End: end}, nil
}

// DeadlineKey returns the deadline as an ISO string for ordering, or "".
func (t *Task) DeadlineKey() string {
	if t.Deadline == nil {
		return ""
	}
	if h, m, s := t.Deadline.Clock(); h == 0 && m == 0 && s == 0 {
		return t.Deadline.Format(dateutil.DateLayout)
	}
	return t.Deadline.Format("2006-01-02T15:04:05")
}

// AllocatorItem converts the task to the allocator's input record.
func (t *Task) AllocatorItem() scheduler.Item {
	return scheduler.Item{
		ID:       fmt.Sprint(t.ID),
		Priority: t.Priority,
		Duration: t.DurationMinutes(),
		Deadline: t.DeadlineKey(),
	}
}

// Complete marks the task completed at the given time.
func (t *Task) Complete(at time.Time) {
	t.Status = StatusCompleted
	t.CompletedAt = &at
}
