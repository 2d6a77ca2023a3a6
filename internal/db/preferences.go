package db

import (
	"context"
	"fmt"
	"time"

	"github.com/javiermolinar/daybook/internal/task"
)

// GetPreferences returns the single preferences row.
func (s *SQLite) GetPreferences(ctx context.Context) (task.Preferences, error) {
	query := `
		SELECT work_start, work_end, break_duration, focus_preference,
		       enable_main_chat, sleep_reminder_time, auto_reschedule_on_drag
		FROM user_preferences
		WHERE id = 1
	`
	var p task.Preferences
	err := s.db.QueryRowContext(ctx, query).Scan(
		&p.WorkStart,
		&p.WorkEnd,
		&p.BreakDuration,
		&p.FocusPreference,
		&p.EnableMainChat,
		&p.SleepReminderTime,
		&p.AutoRescheduleOnDrag,
	)
	if err != nil {
		return task.Preferences{}, fmt.Errorf("querying preferences: %w", err)
	}
	return p, nil
}

// UpdatePreferences validates and replaces the preferences row.
func (s *SQLite) UpdatePreferences(ctx context.Context, p task.Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE user_preferences SET
			work_start = ?, work_end = ?, break_duration = ?, focus_preference = ?,
			enable_main_chat = ?, sleep_reminder_time = ?, auto_reschedule_on_drag = ?
		WHERE id = 1
	`
	_, err := s.db.ExecContext(ctx, query,
		p.WorkStart,
		p.WorkEnd,
		p.BreakDuration,
		p.FocusPreference,
		p.EnableMainChat,
		p.SleepReminderTime,
		p.AutoRescheduleOnDrag,
	)
	if err != nil {
		return fmt.Errorf("updating preferences: %w", err)
	}
	return nil
}

// AddChatMessage stores one conversation turn.
func (s *SQLite) AddChatMessage(ctx context.Context, m *task.ChatMessage) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (role, content, timestamp) VALUES (?, ?, ?)`,
		m.Role, m.Content, m.Timestamp.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting chat message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	m.ID = id
	return nil
}

// RecentChat returns up to limit messages, oldest first.
func (s *SQLite) RecentChat(ctx context.Context, limit int) ([]*task.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, timestamp FROM chat_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*task.ChatMessage
	for rows.Next() {
		var (
			m  task.ChatMessage
			ts string
		)
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		m.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing chat timestamp: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
