package task

import (
	"context"
	"time"
)

// TimeUpdate assigns a slot to a task on a given day.
type TimeUpdate struct {
	ID    int64
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// Filter narrows ListTasks results. Zero values mean "any".
type Filter struct {
	Status          Status
	UnscheduledOnly bool
	Date            *time.Time // only tasks scheduled on this date
	Limit           int
}

// Repository defines the storage interface for tasks.
type Repository interface {
	// CreateTask adds a new task and sets its ID.
	CreateTask(ctx context.Context, t *Task) error

	// GetTask retrieves a task by ID. Returns ErrTaskNotFound if missing.
	GetTask(ctx context.Context, id int64) (*Task, error)

	// ListTasks returns tasks ordered by priority (high first), then deadline.
	ListTasks(ctx context.Context, f Filter) ([]*Task, error)

	// UpdateTask replaces all editable fields of a task.
	UpdateTask(ctx context.Context, t *Task) error

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id int64) error

	// CompleteTask marks a task completed at the given time.
	CompleteTask(ctx context.Context, id int64, at time.Time) error

	// ApplySchedule assigns slots on date to several tasks atomically.
	// Returns ErrTimeBlockOverlap, writing nothing, if any assigned slot
	// overlaps another assigned slot or a task already scheduled that day.
	ApplySchedule(ctx context.Context, date time.Time, updates []TimeUpdate) error

	// UpcomingTasks returns pending tasks on date starting in [from, to] ("HH:MM").
	UpcomingTasks(ctx context.Context, date time.Time, from, to string) ([]*Task, error)

	// CountPending returns the number of pending tasks.
	CountPending(ctx context.Context) (int, error)

	// CountCompletedOn returns the number of tasks completed on date.
	CountCompletedOn(ctx context.Context, date time.Time) (int, error)
}

// FixedRepository stores recurring fixed schedules.
type FixedRepository interface {
	CreateFixed(ctx context.Context, f *FixedSchedule) error
	ListFixed(ctx context.Context) ([]*FixedSchedule, error)
	ListFixedByWeekday(ctx context.Context, weekday time.Weekday) ([]*FixedSchedule, error)
	DeleteFixed(ctx context.Context, id int64) error
}

// PreferenceRepository stores the single preferences row.
type PreferenceRepository interface {
	GetPreferences(ctx context.Context) (Preferences, error)
	UpdatePreferences(ctx context.Context, p Preferences) error
}

// ChatRepository stores the assistant conversation.
type ChatRepository interface {
	AddChatMessage(ctx context.Context, m *ChatMessage) error

	// RecentChat returns up to limit messages, oldest first.
	RecentChat(ctx context.Context, limit int) ([]*ChatMessage, error)
}

// Store is everything the application persists.
type Store interface {
	Repository
	FixedRepository
	PreferenceRepository
	ChatRepository

	// Close releases any resources held by the store.
	Close() error
}
