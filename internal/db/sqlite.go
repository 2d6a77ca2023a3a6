// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/scheduler"
	"github.com/javiermolinar/daybook/internal/task"
)

const deadlineLayout = "2006-01-02T15:04:05"

// SQLite implements task.Store using SQLite.
type SQLite struct {
	db *sql.DB
}

var _ task.Store = (*SQLite)(nil)

// New creates a new SQLite store with default preferences and runs migrations.
func New(path string) (*SQLite, error) {
	return Open(path, task.DefaultPreferences())
}

// Open creates a new SQLite store and runs migrations. seed is written to
// the preferences row only if the row does not exist yet.
func Open(path string, seed task.Preferences) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(seed); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const taskColumns = `
	id, content, category, priority, estimated_duration, deadline,
	scheduled_date, scheduled_start, scheduled_end, status, created_at, completed_at
`

// CreateTask adds a new task to the repository.
// Returns ErrTimeBlockOverlap if the task carries a slot that overlaps another task.
func (s *SQLite) CreateTask(ctx context.Context, t *task.Task) error {
	if t.IsScheduled() {
		if err := checkOverlap(ctx, s.db, *t.ScheduledDate, t.ScheduledStart, t.ScheduledEnd, 0); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO tasks (
			content, category, priority, estimated_duration, deadline,
			scheduled_date, scheduled_start, scheduled_end, status, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = task.StatusPending
	}

	result, err := s.db.ExecContext(ctx, query,
		t.Content,
		t.Category,
		t.Priority,
		t.EstimatedDuration,
		formatDeadline(t.Deadline),
		formatNullDate(t.ScheduledDate),
		nullString(t.ScheduledStart),
		nullString(t.ScheduledEnd),
		t.Status,
		t.CreatedAt.Format(time.RFC3339),
		formatNullTimestamp(t.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	t.ID = id

	return nil
}

// GetTask retrieves a task by ID.
func (s *SQLite) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: #%d", task.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}
	return t, nil
}

// ListTasks returns tasks matching f, high priority first, then by deadline.
func (s *SQLite) ListTasks(ctx context.Context, f task.Filter) ([]*task.Task, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.UnscheduledOnly {
		where = append(where, "(scheduled_start IS NULL OR scheduled_start = '')")
	}
	if f.Date != nil {
		where = append(where, "scheduled_date = ?")
		args = append(args, dateutil.FormatDate(*f.Date))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += `
		ORDER BY CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC,
		         COALESCE(deadline, '` + scheduler.NoDeadline + `'),
		         id
	`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return s.queryTasks(ctx, query, args...)
}

// UpdateTask replaces all editable fields of a task.
// Returns ErrTimeBlockOverlap if the new slot conflicts with another task.
func (s *SQLite) UpdateTask(ctx context.Context, t *task.Task) error {
	if strings.TrimSpace(t.Content) == "" {
		return task.ErrEmptyContent
	}
	if t.IsScheduled() {
		if err := checkOverlap(ctx, s.db, *t.ScheduledDate, t.ScheduledStart, t.ScheduledEnd, t.ID); err != nil {
			return err
		}
	}

	query := `
		UPDATE tasks SET
			content = ?, category = ?, priority = ?, estimated_duration = ?, deadline = ?,
			scheduled_date = ?, scheduled_start = ?, scheduled_end = ?, status = ?, completed_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		t.Content,
		t.Category,
		t.Priority,
		t.EstimatedDuration,
		formatDeadline(t.Deadline),
		formatNullDate(t.ScheduledDate),
		nullString(t.ScheduledStart),
		nullString(t.ScheduledEnd),
		t.Status,
		formatNullTimestamp(t.CompletedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return requireRow(result, task.ErrTaskNotFound, t.ID)
}

// DeleteTask removes a task.
func (s *SQLite) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return requireRow(result, task.ErrTaskNotFound, id)
}

// CompleteTask marks a task completed at the given time.
func (s *SQLite) CompleteTask(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE tasks SET status = ?, completed_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, task.StatusCompleted, at.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("completing task: %w", err)
	}
	return requireRow(result, task.ErrTaskNotFound, id)
}

// ApplySchedule assigns slots on date to several tasks in one transaction.
// The final state is checked before anything is written: assigned slots may
// not overlap each other, tasks already scheduled that day, or the fixed
// schedules of that weekday.
func (s *SQLite) ApplySchedule(ctx context.Context, date time.Time, updates []task.TimeUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	type block struct {
		label string
		iv    scheduler.Interval
	}

	// 1. Validate the proposed slots themselves.
	proposed := make([]block, 0, len(updates))
	updating := make(map[int64]bool, len(updates))
	for _, u := range updates {
		if updating[u.ID] {
			return fmt.Errorf("%w: #%d assigned twice", task.ErrTimeBlockOverlap, u.ID)
		}
		updating[u.ID] = true

		iv, err := (&task.Task{ScheduledStart: u.Start, ScheduledEnd: u.End}).Interval()
		if err != nil {
			return fmt.Errorf("task #%d: %w", u.ID, err)
		}
		proposed = append(proposed, block{label: fmt.Sprintf("#%d", u.ID), iv: iv})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// 2. Collect what already occupies the day.
	var existing []block

	rows, err := tx.QueryContext(ctx, `
		SELECT id, content, scheduled_start, scheduled_end
		FROM tasks
		WHERE scheduled_date = ?
		  AND scheduled_start IS NOT NULL AND scheduled_start != ''
	`, dateutil.FormatDate(date))
	if err != nil {
		return fmt.Errorf("querying tasks: %w", err)
	}
	for rows.Next() {
		var (
			id               int64
			content          string
			startStr, endStr string
		)
		if err := rows.Scan(&id, &content, &startStr, &endStr); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning task: %w", err)
		}
		if updating[id] {
			continue
		}
		iv, err := (&task.Task{ScheduledStart: startStr, ScheduledEnd: endStr}).Interval()
		if err != nil {
			continue
		}
		existing = append(existing, block{label: fmt.Sprintf("#%d %q", id, content), iv: iv})
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating tasks: %w", err)
	}

	fixed, err := listFixed(ctx, tx, `WHERE weekday = ?`, int(date.Weekday()))
	if err != nil {
		return err
	}
	for _, f := range fixed {
		iv, err := f.Interval()
		if err != nil {
			continue
		}
		existing = append(existing, block{label: fmt.Sprintf("fixed %q", f.Title), iv: iv})
	}

	// 3. Check the final state for overlaps.
	for i, p := range proposed {
		for _, q := range proposed[i+1:] {
			if p.iv.Overlaps(q.iv) {
				return fmt.Errorf("%w: %s (%s) conflicts with %s (%s)",
					task.ErrTimeBlockOverlap, p.label, p.iv, q.label, q.iv)
			}
		}
		for _, e := range existing {
			if p.iv.Overlaps(e.iv) {
				return fmt.Errorf("%w: %s (%s) conflicts with %s (%s)",
					task.ErrTimeBlockOverlap, p.label, p.iv, e.label, e.iv)
			}
		}
	}

	// 4. Execute all updates.
	stmt, err := tx.PrepareContext(ctx, `
		UPDATE tasks SET scheduled_date = ?, scheduled_start = ?, scheduled_end = ?
		WHERE id = ? AND status = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, u := range updates {
		result, err := stmt.ExecContext(ctx, dateutil.FormatDate(date), u.Start, u.End, u.ID, task.StatusPending)
		if err != nil {
			return fmt.Errorf("updating task %d: %w", u.ID, err)
		}
		if err := requireRow(result, task.ErrTaskNotFound, u.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// UpcomingTasks returns pending tasks on date whose start lies in [from, to].
func (s *SQLite) UpcomingTasks(ctx context.Context, date time.Time, from, to string) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = ?
		  AND scheduled_date = ?
		  AND scheduled_start >= ?
		  AND scheduled_start <= ?
		ORDER BY scheduled_start
	`
	return s.queryTasks(ctx, query, task.StatusPending, dateutil.FormatDate(date), from, to)
}

// CountPending returns the number of pending tasks.
func (s *SQLite) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE status = ?`, task.StatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting pending tasks: %w", err)
	}
	return n, nil
}

// CountCompletedOn returns the number of tasks completed on date, local time.
func (s *SQLite) CountCompletedOn(ctx context.Context, date time.Time) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT completed_at FROM tasks WHERE status = ? AND completed_at IS NOT NULL`,
		task.StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("querying completed tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	n := 0
	for rows.Next() {
		var completedAt string
		if err := rows.Scan(&completedAt); err != nil {
			return 0, fmt.Errorf("scanning completed task: %w", err)
		}
		at, err := time.Parse(time.RFC3339, completedAt)
		if err != nil {
			return 0, fmt.Errorf("parsing completed at: %w", err)
		}
		if dateutil.SameDay(at.In(date.Location()), date) {
			n++
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating completed tasks: %w", err)
	}
	return n, nil
}

func (s *SQLite) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	return tasks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*task.Task, error) {
	var (
		t              task.Task
		deadline       sql.NullString
		scheduledDate  sql.NullString
		scheduledStart sql.NullString
		scheduledEnd   sql.NullString
		createdAt      string
		completedAt    sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&t.Content,
		&t.Category,
		&t.Priority,
		&t.EstimatedDuration,
		&deadline,
		&scheduledDate,
		&scheduledStart,
		&scheduledEnd,
		&t.Status,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if deadline.Valid && deadline.String != "" {
		d, err := parseDeadline(deadline.String)
		if err != nil {
			return nil, fmt.Errorf("parsing deadline: %w", err)
		}
		t.Deadline = &d
	}

	if scheduledDate.Valid && scheduledDate.String != "" {
		d, err := parseDate(scheduledDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing scheduled date: %w", err)
		}
		t.ScheduledDate = &d
	}
	t.ScheduledStart = scheduledStart.String
	t.ScheduledEnd = scheduledEnd.String

	t.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}

	if completedAt.Valid {
		c, err := time.Parse(time.RFC3339, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing completed at: %w", err)
		}
		t.CompletedAt = &c
	}

	return &t, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkOverlap checks if a time block overlaps with tasks already scheduled on
// the same day, ignoring excludeID. Two ranges overlap if start1 < end2 AND start2 < end1.
func checkOverlap(ctx context.Context, q querier, date time.Time, start, end string, excludeID int64) error {
	if _, err := (&task.Task{ScheduledStart: start, ScheduledEnd: end}).Interval(); err != nil {
		return err
	}

	query := `
		SELECT id, scheduled_start, scheduled_end, content
		FROM tasks
		WHERE scheduled_date = ?
		  AND id != ?
		  AND scheduled_start < ?
		  AND scheduled_end > ?
		LIMIT 1
	`

	var (
		id         int64
		existStart string
		existEnd   string
		content    string
	)

	err := q.QueryRowContext(ctx, query,
		dateutil.FormatDate(date),
		excludeID,
		end,
		start,
	).Scan(&id, &existStart, &existEnd, &content)

	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking overlap: %w", err)
	}

	return fmt.Errorf("%w: conflicts with #%d %q (%s-%s)",
		task.ErrTimeBlockOverlap, id, content, existStart, existEnd)
}

func requireRow(result sql.Result, notFound error, id int64) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: #%d", notFound, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatNullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: dateutil.FormatDate(*t), Valid: true}
}

func formatNullTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// formatDeadline stores deadlines as local wall time so they sort as text.
func formatDeadline(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.In(time.Local).Format(deadlineLayout), Valid: true}
}

func parseDeadline(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(deadlineLayout, s, time.Local); err == nil {
		return t, nil
	}
	return parseDate(s)
}

// parseDate parses a date string in various formats SQLite might return.
// Date-only values (midnight) are parsed in local timezone to match time.Now() behavior.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateutil.DateLayout, s, time.Local); err == nil {
		return t, nil
	}

	// SQLite may hand back "2006-01-02T00:00:00Z" for date-only values.
	if len(s) == 20 && s[10] == 'T' && s[19] == 'Z' {
		if t, err := time.ParseInLocation(dateutil.DateLayout, s[:10], time.Local); err == nil {
			return t, nil
		}
	}

	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
