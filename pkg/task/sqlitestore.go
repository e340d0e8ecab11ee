package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorevlerim/internal/db"
)

// SQLiteStore persists tasks in a SQLite database opened with the
// modernc.org/sqlite driver. Foreign keys must be enabled on the connection
// for subtasks to follow their task on delete.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLiteStore on an open database.
func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	owner_type   TEXT NOT NULL DEFAULT 'user',
	date         TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT,
	status       TEXT NOT NULL DEFAULT 'pending',
	block_reason TEXT,
	sort_order   INTEGER NOT NULL DEFAULT 0,
	created_by   TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_partition ON tasks(owner_id, owner_type, date, sort_order);
CREATE TABLE IF NOT EXISTS subtasks (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	title        TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	block_reason TEXT,
	sort_order   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id, sort_order);
`

// EnsureTable creates the tasks and subtasks tables if they don't exist.
func (s *SQLiteStore) EnsureTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create task schema: %w", err)
	}
	return nil
}

// List returns the partition's tasks ordered by sort order.
func (s *SQLiteStore) List(ctx context.Context, owner Owner, date string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE owner_id = ? AND owner_type = ? AND date = ?
		ORDER BY sort_order ASC, created_at ASC`, owner.ID, string(owner.Type), date)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

// Subtasks returns the subtasks of the given tasks keyed by task id.
func (s *SQLiteStore) Subtasks(ctx context.Context, taskIDs []string) (map[string][]Subtask, error) {
	out := make(map[string][]Subtask, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(taskIDs)), ",")
	args := make([]any, len(taskIDs))
	for i, id := range taskIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, title, status, block_reason, sort_order
		FROM subtasks WHERE task_id IN (`+placeholders+`)
		ORDER BY task_id, sort_order ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()
	return scanSubtaskRows(rows, out)
}

// Get retrieves a single task by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Task, error) {
	t, err := scanSQLiteTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, sqliteNotFound(err))
	}
	return t, nil
}

// NextSortOrder returns max(sort_order)+1 for the partition, 0 when empty.
func (s *SQLiteStore) NextSortOrder(ctx context.Context, owner Owner, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sort_order) + 1, 0)
		FROM tasks WHERE owner_id = ? AND owner_type = ? AND date = ?`,
		owner.ID, string(owner.Type), date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	return n, nil
}

// Create inserts a new task together with its subtasks.
func (s *SQLiteStore) Create(ctx context.Context, t *Task, subtasks []string) (*Task, error) {
	prepareNew(t)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, string(t.OwnerType), t.Date, t.Title, columnValue(t.Description), string(t.Status),
		columnValue(t.BlockReason), t.SortOrder, t.CreatedBy, db.FormatSQLiteTime(t.CreatedAt), db.FormatSQLiteTime(t.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	for i, title := range subtasks {
		st := newSubtask(t.ID, title, i)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO subtasks (id, task_id, title, status, sort_order)
			VALUES (?, ?, ?, ?, ?)`,
			st.ID, st.TaskID, st.Title, string(st.Status), st.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("create subtask %q: %w", title, err)
		}
		t.Subtasks = append(t.Subtasks, st)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}
	return t, nil
}

// Update modifies task fields. Supported keys: title, description, status, block_reason, date.
func (s *SQLiteStore) Update(ctx context.Context, id string, updates map[string]any) (*Task, error) {
	setClauses := "updated_at = ?"
	args := []any{db.FormatSQLiteTime(time.Now())}

	for _, k := range updateKeys {
		v, ok := updates[k]
		if !ok {
			continue
		}
		setClauses += ", " + k + " = ?"
		args = append(args, columnValue(v))
	}

	args = append(args, id)
	query := "UPDATE tasks SET " + setClauses + " WHERE id = ? RETURNING " + taskColumns

	t, err := scanSQLiteTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, sqliteNotFound(err))
	}
	return t, nil
}

// Move reschedules a task onto date at the end of its owner's partition.
func (s *SQLiteStore) Move(ctx context.Context, id, date string, updates map[string]any) (*Task, error) {
	args := []any{date, db.FormatSQLiteTime(time.Now()), date}
	extra := ""
	for _, k := range moveKeys {
		v, ok := updates[k]
		if !ok {
			continue
		}
		extra += ", " + k + " = ?"
		args = append(args, columnValue(v))
	}
	args = append(args, id)

	t, err := scanSQLiteTask(s.db.QueryRowContext(ctx, `
		UPDATE tasks SET
			date = ?,
			status = 'pending',
			updated_at = ?,
			sort_order = (
				SELECT COALESCE(MAX(x.sort_order) + 1, 0) FROM tasks x
				WHERE x.owner_id = tasks.owner_id AND x.owner_type = tasks.owner_type AND x.date = ?
			)`+extra+`
		WHERE id = ?
		RETURNING `+taskColumns, args...))
	if err != nil {
		return nil, fmt.Errorf("move task %s: %w", id, sqliteNotFound(err))
	}
	return t, nil
}

// CompleteSubtasks marks every subtask of the task completed.
func (s *SQLiteStore) CompleteSubtasks(ctx context.Context, taskID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE subtasks SET status = 'completed' WHERE task_id = ?`, taskID)
	if err != nil {
		return 0, fmt.Errorf("complete subtasks of %s: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Delete removes a task and returns the deleted row.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (*Task, error) {
	t, err := scanSQLiteTask(s.db.QueryRowContext(ctx, `DELETE FROM tasks WHERE id = ? RETURNING `+taskColumns, id))
	if err != nil {
		return nil, fmt.Errorf("delete task %s: %w", id, sqliteNotFound(err))
	}
	return t, nil
}

func sqliteNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanSQLiteTask(row rowScanner) (*Task, error) {
	var t Task
	var ownerType, status, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.OwnerID, &ownerType, &t.Date, &t.Title, &t.Description, &status,
		&t.BlockReason, &t.SortOrder, &t.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.OwnerType = OwnerType(ownerType)
	t.Status = Status(status)
	if t.CreatedAt, err = db.ParseSQLiteTime(createdAt); err != nil {
		return nil, fmt.Errorf("task %s created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = db.ParseSQLiteTime(updatedAt); err != nil {
		return nil, fmt.Errorf("task %s updated_at: %w", t.ID, err)
	}
	return &t, nil
}
