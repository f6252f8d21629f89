package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/taskera/pkg/model"
)

// ErrNotFound is returned when no task row matches.
var ErrNotFound = errors.New("task not found")

// Store persists tasks. Due dates are stored as the epoch milliseconds of
// local midnight in loc, times of day as "HH:MM" text.
type Store struct {
	DB  *sql.DB
	loc *time.Location
}

func NewStore(db *sql.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{DB: db, loc: loc}
}

// Location is the zone used to map due dates to epoch milliseconds.
func (s *Store) Location() *time.Location {
	return s.loc
}

const taskColumns = `id, title, description, due_date, start_time, end_time, priority, category, is_completed, event_id, lead_time_min, owner_email`

// Insert stores a new task and returns the id assigned to it.
func (s *Store) Insert(ctx context.Context, t model.Task) (int64, error) {
	args := s.taskArgs(t)
	res, err := s.DB.ExecContext(ctx, `INSERT INTO tasks
		(title, description, due_date, start_time, end_time, priority, category, is_completed, event_id, lead_time_min, owner_email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

// Update overwrites every column of the task row with t's values.
func (s *Store) Update(ctx context.Context, t model.Task) error {
	args := append(s.taskArgs(t), t.ID)
	res, err := s.DB.ExecContext(ctx, `UPDATE tasks SET
		title = ?, description = ?, due_date = ?, start_time = ?, end_time = ?, priority = ?,
		category = ?, is_completed = ?, event_id = ?, lead_time_min = ?, owner_email = ?
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return expectRow(res, t.ID)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return expectRow(res, id)
}

// SetEventID links the task to a calendar event; an empty id clears the link.
func (s *Store) SetEventID(ctx context.Context, id int64, eventID string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE tasks SET event_id = ? WHERE id = ?`, nullString(eventID), id)
	if err != nil {
		return fmt.Errorf("set event id on task %d: %w", id, err)
	}
	return expectRow(res, id)
}

func (s *Store) SetCompleted(ctx context.Context, id int64, completed bool) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE tasks SET is_completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return fmt.Errorf("set completion on task %d: %w", id, err)
	}
	return expectRow(res, id)
}

// Get returns one task of owner.
func (s *Store) Get(ctx context.Context, owner string, id int64) (model.Task, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner_email = ?`, id, owner)
	t, err := s.scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// ListByOwner returns all tasks of owner, newest first.
func (s *Store) ListByOwner(ctx context.Context, owner string) ([]model.Task, error) {
	return s.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_email = ? ORDER BY id DESC`, owner)
}

// ListByDateRange returns tasks whose due date lies within [startMs, endMs].
func (s *Store) ListByDateRange(ctx context.Context, owner string, startMs, endMs int64) ([]model.Task, error) {
	return s.list(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE owner_email = ? AND due_date BETWEEN ? AND ?
		ORDER BY due_date ASC, id ASC`, owner, startMs, endMs)
}

// ListByDay returns the tasks due on day.
func (s *Store) ListByDay(ctx context.Context, owner string, day model.Date) ([]model.Task, error) {
	start, end := model.DayBounds(day, s.loc)
	return s.ListByDateRange(ctx, owner, start, end)
}

// ListSortedByPriority orders High, Medium, Low, then unknown values, with
// earlier due dates first inside each bucket.
func (s *Store) ListSortedByPriority(ctx context.Context, owner string) ([]model.Task, error) {
	return s.list(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE owner_email = ?
		ORDER BY
			CASE priority
				WHEN 'High' THEN 1
				WHEN 'Medium' THEN 2
				WHEN 'Low' THEN 3
				ELSE 4
			END,
			due_date IS NULL, due_date ASC, id ASC`, owner)
}

// DistinctDueDates lists every day that has at least one task due.
func (s *Store) DistinctDueDates(ctx context.Context, owner string) ([]model.Date, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT DISTINCT due_date FROM tasks
		WHERE owner_email = ? AND due_date IS NOT NULL ORDER BY due_date ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list due dates: %w", err)
	}
	defer rows.Close()

	var dates []model.Date
	seen := make(map[model.Date]struct{})
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("scan due date: %w", err)
		}
		d := model.DateOf(time.UnixMilli(ms).In(s.loc))
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanTask(row scanner) (model.Task, error) {
	var (
		t         model.Task
		dueDate   sql.NullInt64
		startTime sql.NullString
		endTime   sql.NullString
		priority  string
		category  string
		eventID   sql.NullString
		leadTime  sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &dueDate, &startTime, &endTime,
		&priority, &category, &t.Completed, &eventID, &leadTime, &t.Owner)
	if err != nil {
		return model.Task{}, err
	}

	t.Priority = model.Priority(priority)
	t.Category = model.Category(category)
	t.EventID = eventID.String
	if dueDate.Valid {
		d := model.DateOf(time.UnixMilli(dueDate.Int64).In(s.loc))
		t.DueDate = &d
	}
	if t.StartTime, err = parseClock(startTime); err != nil {
		return model.Task{}, err
	}
	if t.EndTime, err = parseClock(endTime); err != nil {
		return model.Task{}, err
	}
	if leadTime.Valid {
		lead := int(leadTime.Int64)
		t.LeadTimeMin = &lead
	}
	return t, nil
}

func (s *Store) taskArgs(t model.Task) []any {
	var dueDate sql.NullInt64
	if t.DueDate != nil {
		dueDate = sql.NullInt64{Int64: t.DueDate.In(s.loc).UnixMilli(), Valid: true}
	}
	var leadTime sql.NullInt64
	if t.LeadTimeMin != nil {
		leadTime = sql.NullInt64{Int64: int64(*t.LeadTimeMin), Valid: true}
	}
	priority := t.Priority
	if priority == "" {
		priority = model.PriorityLow
	}
	category := t.Category
	if category == "" {
		category = model.CategoryPersonal
	}
	return []any{
		t.Title,
		t.Description,
		dueDate,
		formatClock(t.StartTime),
		formatClock(t.EndTime),
		string(priority),
		string(category),
		t.Completed,
		nullString(t.EventID),
		leadTime,
		t.Owner,
	}
}

func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatClock(c *model.Clock) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: c.String(), Valid: true}
}

func parseClock(v sql.NullString) (*model.Clock, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	c, err := model.ParseClock(v.String)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
