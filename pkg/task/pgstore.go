package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, owner_id, owner_type, date, title, description, status, block_reason, sort_order, created_by, created_at, updated_at`

// PgStore is a PostgreSQL-backed task store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the tasks and subtasks tables if they don't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
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
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_partition ON tasks(owner_id, owner_type, date, sort_order)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS subtasks (
			id           TEXT PRIMARY KEY,
			task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'pending',
			block_reason TEXT,
			sort_order   INTEGER NOT NULL DEFAULT 0
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id, sort_order)`)
	return err
}

// List returns the partition's tasks ordered by sort order.
func (s *PgStore) List(ctx context.Context, owner Owner, date string) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE owner_id = $1 AND owner_type = $2 AND date = $3
		ORDER BY sort_order ASC, created_at ASC`, owner.ID, string(owner.Type), date)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanTaskRows(rows)
}

// Subtasks returns the subtasks of the given tasks keyed by task id.
func (s *PgStore) Subtasks(ctx context.Context, taskIDs []string) (map[string][]Subtask, error) {
	out := make(map[string][]Subtask, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, title, status, block_reason, sort_order
		FROM subtasks WHERE task_id = ANY($1)
		ORDER BY task_id, sort_order ASC`, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()
	return scanSubtaskRows(rows, out)
}

// Get retrieves a single task by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, notFound(err))
	}
	return t, nil
}

// NextSortOrder returns max(sort_order)+1 for the partition, 0 when empty.
func (s *PgStore) NextSortOrder(ctx context.Context, owner Owner, date string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(sort_order) + 1, 0)
		FROM tasks WHERE owner_id = $1 AND owner_type = $2 AND date = $3`,
		owner.ID, string(owner.Type), date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	return n, nil
}

// Create inserts a new task together with its subtasks.
func (s *PgStore) Create(ctx context.Context, t *Task, subtasks []string) (*Task, error) {
	prepareNew(t)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.OwnerID, string(t.OwnerType), t.Date, t.Title, t.Description, string(t.Status),
		t.BlockReason, t.SortOrder, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	for i, title := range subtasks {
		st := newSubtask(t.ID, title, i)
		_, err = tx.Exec(ctx, `
			INSERT INTO subtasks (id, task_id, title, status, sort_order)
			VALUES ($1, $2, $3, $4, $5)`,
			st.ID, st.TaskID, st.Title, string(st.Status), st.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("create subtask %q: %w", title, err)
		}
		t.Subtasks = append(t.Subtasks, st)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}
	return t, nil
}

// Update modifies task fields. Supported keys: title, description, status, block_reason, date.
func (s *PgStore) Update(ctx context.Context, id string, updates map[string]any) (*Task, error) {
	now := time.Now().Truncate(time.Microsecond)

	setClauses := "updated_at = $1"
	args := []any{now}
	argIdx := 2

	for _, k := range updateKeys {
		v, ok := updates[k]
		if !ok {
			continue
		}
		setClauses += fmt.Sprintf(", %s = $%d", k, argIdx)
		args = append(args, columnValue(v))
		argIdx++
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d RETURNING %s", setClauses, argIdx, taskColumns)

	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, notFound(err))
	}
	return t, nil
}

// Move reschedules a task onto date at the end of its owner's partition.
// The new sort order is computed inside the UPDATE so the read and the write
// are a single statement.
func (s *PgStore) Move(ctx context.Context, id, date string, updates map[string]any) (*Task, error) {
	now := time.Now().Truncate(time.Microsecond)
	args := []any{id, date, now}
	extra := ""
	for _, k := range moveKeys {
		v, ok := updates[k]
		if !ok {
			continue
		}
		args = append(args, columnValue(v))
		extra += fmt.Sprintf(", %s = $%d", k, len(args))
	}

	t, err := scanTask(s.pool.QueryRow(ctx, `
		UPDATE tasks SET
			date = $2,
			status = 'pending',
			updated_at = $3,
			sort_order = (
				SELECT COALESCE(MAX(x.sort_order) + 1, 0) FROM tasks x
				WHERE x.owner_id = tasks.owner_id AND x.owner_type = tasks.owner_type AND x.date = $2
			)`+extra+`
		WHERE id = $1
		RETURNING `+taskColumns, args...))
	if err != nil {
		return nil, fmt.Errorf("move task %s: %w", id, notFound(err))
	}
	return t, nil
}

// CompleteSubtasks marks every subtask of the task completed.
func (s *PgStore) CompleteSubtasks(ctx context.Context, taskID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE subtasks SET status = 'completed' WHERE task_id = $1`, taskID)
	if err != nil {
		return 0, fmt.Errorf("complete subtasks of %s: %w", taskID, err)
	}
	return int(tag.RowsAffected()), nil
}

// Delete removes a task and returns the deleted row.
func (s *PgStore) Delete(ctx context.Context, id string) (*Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `DELETE FROM tasks WHERE id = $1 RETURNING `+taskColumns, id))
	if err != nil {
		return nil, fmt.Errorf("delete task %s: %w", id, notFound(err))
	}
	return t, nil
}

// updateKeys are the columns Update may change, in a fixed order so the
// generated SQL is stable.
var updateKeys = []string{"title", "description", "status", "block_reason", "date"}

// moveKeys are the update columns Move carries along; it sets status and
// date itself.
var moveKeys = []string{"title", "description", "block_reason"}

// columnValue turns an update value into something both drivers bind.
func columnValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case Status:
		return string(x)
	default:
		return v
	}
}

func prepareNew(t *Task) {
	t.ID = uuid.Must(uuid.NewV7()).String()
	now := time.Now().Truncate(time.Microsecond)
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.OwnerType == "" {
		t.OwnerType = OwnerUser
	}
}

func newSubtask(taskID, title string, order int) Subtask {
	return Subtask{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TaskID:    taskID,
		Title:     title,
		Status:    StatusPending,
		SortOrder: order,
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var ownerType, status string
	err := row.Scan(&t.ID, &t.OwnerID, &ownerType, &t.Date, &t.Title, &t.Description, &status,
		&t.BlockReason, &t.SortOrder, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.OwnerType = OwnerType(ownerType)
	t.Status = Status(status)
	return &t, nil
}

func scanTaskRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
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

func scanSubtaskRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}, out map[string][]Subtask) (map[string][]Subtask, error) {
	for rows.Next() {
		var st Subtask
		var status string
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &status, &st.BlockReason, &st.SortOrder); err != nil {
			return nil, err
		}
		st.Status = Status(status)
		out[st.TaskID] = append(out[st.TaskID], st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return out, nil
}
