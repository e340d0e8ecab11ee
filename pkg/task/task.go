package task

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state shared by tasks and subtasks.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusBlocked   Status = "blocked"
	StatusPostponed Status = "postponed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusCompleted, StatusBlocked, StatusPostponed}

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// OwnerType tells whether a task belongs to a user or a group.
type OwnerType string

const (
	OwnerUser  OwnerType = "user"
	OwnerGroup OwnerType = "group"
)

// ParseOwnerType validates s as an OwnerType.
func ParseOwnerType(s string) (OwnerType, error) {
	switch OwnerType(s) {
	case OwnerUser, OwnerGroup:
		return OwnerType(s), nil
	}
	return "", fmt.Errorf("invalid owner type %q", s)
}

// Owner identifies who a task belongs to. Tasks sharing an owner and a date
// form a partition, the unit for sort order and ordinal numbering.
type Owner struct {
	ID   string    `json:"owner_id"`
	Type OwnerType `json:"owner_type"`
}

// UserOwner returns the owner for a user id.
func UserOwner(id string) Owner { return Owner{ID: id, Type: OwnerUser} }

// GroupOwner returns the owner for a group id.
func GroupOwner(id string) Owner { return Owner{ID: id, Type: OwnerGroup} }

func (o Owner) String() string { return string(o.Type) + ":" + o.ID }

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("task not found")

// Task is a to-do item on a given calendar day.
type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	OwnerType   OwnerType `json:"owner_type"`
	Date        string    `json:"date"` // YYYY-MM-DD, not validated
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      Status    `json:"status"`
	BlockReason *string   `json:"block_reason"`
	SortOrder   int       `json:"sort_order"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
}

// Owner returns the task's owner.
func (t *Task) Owner() Owner { return Owner{ID: t.OwnerID, Type: t.OwnerType} }

// CompletedSubtasks counts subtasks in the completed state.
func (t *Task) CompletedSubtasks() int {
	n := 0
	for _, s := range t.Subtasks {
		if s.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// Subtask is a checklist entry of a task. Subtasks are only created together
// with their task and disappear with it.
type Subtask struct {
	ID          string  `json:"id"`
	TaskID      string  `json:"task_id"`
	Title       string  `json:"title"`
	Status      Status  `json:"status"`
	BlockReason *string `json:"block_reason"`
	SortOrder   int     `json:"sort_order"`
}

// Store is the contract for task persistence.
type Store interface {
	// List returns the tasks of the (owner, date) partition ordered by sort order.
	// Subtasks are not loaded.
	List(ctx context.Context, owner Owner, date string) ([]Task, error)

	// Subtasks returns the subtasks of the given tasks keyed by task id,
	// each slice ordered by sort order.
	Subtasks(ctx context.Context, taskIDs []string) (map[string][]Subtask, error)

	Get(ctx context.Context, id string) (*Task, error)

	// NextSortOrder returns the partition's maximum sort order plus one, or
	// zero when the partition is empty. Callers that insert afterwards race
	// with concurrent writers.
	NextSortOrder(ctx context.Context, owner Owner, date string) (int, error)

	// Create inserts t and one pending subtask per title, numbered from zero.
	Create(ctx context.Context, t *Task, subtasks []string) (*Task, error)

	// Update modifies task fields. Supported keys: title, description, status,
	// block_reason, date. A nil value clears description or block_reason.
	Update(ctx context.Context, id string, updates map[string]any) (*Task, error)

	// Move puts the task on date within its own owner's partition, after the
	// last task there, and resets it to pending. Other updates, keyed as for
	// Update, are written in the same statement; status and date in updates
	// are ignored.
	Move(ctx context.Context, id, date string, updates map[string]any) (*Task, error)

	// CompleteSubtasks marks every subtask of the task completed and returns
	// how many rows changed.
	CompleteSubtasks(ctx context.Context, taskID string) (int, error)

	// Delete removes the task and returns it as it was.
	Delete(ctx context.Context, id string) (*Task, error)

	EnsureTable(ctx context.Context) error
}
