package db

import (
	"fmt"

	"github.com/javiermolinar/daybook/internal/task"
)

// migrate runs database migrations and seeds the preferences row.
func (s *SQLite) migrate(seed task.Preferences) error {
	query := `
		CREATE TABLE IF NOT EXISTS tasks (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			content            TEXT NOT NULL,
			category           TEXT NOT NULL DEFAULT 'other' CHECK(category IN ('work', 'study', 'life', 'other')),
			priority           TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('high', 'medium', 'low')),
			estimated_duration TEXT NOT NULL DEFAULT '1h',
			deadline           TEXT,
			scheduled_date     TEXT,
			scheduled_start    TEXT,
			scheduled_end      TEXT,
			status             TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'completed')),
			created_at         TEXT NOT NULL,
			completed_at       TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_scheduled ON tasks(scheduled_date);
		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

		CREATE TABLE IF NOT EXISTS fixed_schedules (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			weekday    INTEGER NOT NULL CHECK(weekday BETWEEN 0 AND 6),
			start_time TEXT NOT NULL,
			end_time   TEXT NOT NULL,
			recurrence TEXT NOT NULL DEFAULT 'weekly',
			location   TEXT NOT NULL DEFAULT '',
			source     TEXT NOT NULL DEFAULT 'manual' CHECK(source IN ('manual', 'import'))
		);

		CREATE INDEX IF NOT EXISTS idx_fixed_weekday ON fixed_schedules(weekday);

		CREATE TABLE IF NOT EXISTS user_preferences (
			id                      INTEGER PRIMARY KEY CHECK(id = 1),
			work_start              TEXT NOT NULL,
			work_end                TEXT NOT NULL,
			break_duration          TEXT NOT NULL,
			focus_preference        TEXT NOT NULL DEFAULT '',
			enable_main_chat        INTEGER NOT NULL DEFAULT 1,
			sleep_reminder_time     TEXT NOT NULL,
			auto_reschedule_on_drag INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS chat_history (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			role      TEXT NOT NULL CHECK(role IN ('user', 'assistant')),
			content   TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	seedQuery := `
		INSERT OR IGNORE INTO user_preferences (
			id, work_start, work_end, break_duration, focus_preference,
			enable_main_chat, sleep_reminder_time, auto_reschedule_on_drag
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(seedQuery,
		seed.WorkStart,
		seed.WorkEnd,
		seed.BreakDuration,
		seed.FocusPreference,
		seed.EnableMainChat,
		seed.SleepReminderTime,
		seed.AutoRescheduleOnDrag,
	)
	if err != nil {
		return fmt.Errorf("seeding preferences: %w", err)
	}

	return nil
}
