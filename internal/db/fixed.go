package db

import (
	"context"
	"fmt"
	"time"

	"github.com/javiermolinar/daybook/internal/task"
)

// CreateFixed adds a recurring fixed schedule.
func (s *SQLite) CreateFixed(ctx context.Context, f *task.FixedSchedule) error {
	if _, err := f.Interval(); err != nil {
		return err
	}
	if f.Recurrence == "" {
		f.Recurrence = task.RecurrenceWeekly
	}
	if f.Source == "" {
		f.Source = task.SourceManual
	}

	query := `
		INSERT INTO fixed_schedules (title, weekday, start_time, end_time, recurrence, location, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		f.Title,
		int(f.Weekday),
		f.Start,
		f.End,
		f.Recurrence,
		f.Location,
		f.Source,
	)
	if err != nil {
		return fmt.Errorf("inserting fixed schedule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	f.ID = id
	return nil
}

// ListFixed returns every fixed schedule ordered by weekday and start.
func (s *SQLite) ListFixed(ctx context.Context) ([]*task.FixedSchedule, error) {
	return listFixed(ctx, s.db, "")
}

// ListFixedByWeekday returns the fixed schedules recurring on weekday.
func (s *SQLite) ListFixedByWeekday(ctx context.Context, weekday time.Weekday) ([]*task.FixedSchedule, error) {
	return listFixed(ctx, s.db, `WHERE weekday = ?`, int(weekday))
}

// DeleteFixed removes a fixed schedule.
func (s *SQLite) DeleteFixed(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM fixed_schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting fixed schedule: %w", err)
	}
	return requireRow(result, task.ErrFixedNotFound, id)
}

func listFixed(ctx context.Context, q querier, where string, args ...any) ([]*task.FixedSchedule, error) {
	query := `
		SELECT id, title, weekday, start_time, end_time, recurrence, location, source
		FROM fixed_schedules ` + where + `
		ORDER BY weekday, start_time, id
	`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fixed schedules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*task.FixedSchedule
	for rows.Next() {
		var (
			f       task.FixedSchedule
			weekday int
		)
		err := rows.Scan(&f.ID, &f.Title, &weekday, &f.Start, &f.End, &f.Recurrence, &f.Location, &f.Source)
		if err != nil {
			return nil, fmt.Errorf("scanning fixed schedule: %w", err)
		}
		f.Weekday = time.Weekday(weekday)
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fixed schedules: %w", err)
	}
	return out, nil
}
