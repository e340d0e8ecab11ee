// Package todo implements the task operations shared by the MCP tools and
// the HTTP API: listing a day, batch creation, updates, ordinal completion
// and postponing. Callers pass an already resolved owner and date.
package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorevlerim/pkg/task"
)

// ErrValidation marks errors caused by a malformed request.
var ErrValidation = errors.New("invalid request")

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// OrdinalError reports a task number beyond the end of its partition.
type OrdinalError struct {
	Number int
}

func (e *OrdinalError) Error() string { return fmt.Sprintf("task %d not found", e.Number) }
func (e *OrdinalError) Unwrap() error { return task.ErrNotFound }

// Options tune behaviour that differs between front doors.
type Options struct {
	// CascadeCompletion completes every subtask when a task is completed.
	CascadeCompletion bool
}

// Service runs task operations against a store.
type Service struct {
	store task.Store
	opts  Options
	log   *slog.Logger
}

// NewService creates a Service. A nil logger discards output.
func NewService(store task.Store, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, opts: opts, log: log}
}

// List returns the partition's tasks in sort order with their subtasks
// attached, each subtask list in its own sort order.
func (s *Service) List(ctx context.Context, owner task.Owner, date string) ([]task.Task, error) {
	tasks, err := s.store.List(ctx, owner, date)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	ids := make([]string, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	subs, err := s.store.Subtasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Subtasks = subs[tasks[i].ID]
	}
	return tasks, nil
}

// CreateInput describes a batch of tasks for one partition.
type CreateInput struct {
	Owner       task.Owner
	Date        string
	Titles      []string
	Description string
	Subtasks    []string // appended after the ones parsed from Description
	CreatedBy   string
}

// Create inserts one task per title at the end of the partition, in input
// order. Description and subtasks only apply when a single title is given.
// It stops at the first failure and returns the tasks created before it.
func (s *Service) Create(ctx context.Context, in CreateInput) ([]task.Task, error) {
	if len(in.Titles) == 0 {
		return nil, invalid("title or titles required")
	}

	description, subtasks := task.ExtractSubtasks(in.Description)
	subtasks = append(subtasks, in.Subtasks...)
	single := len(in.Titles) == 1

	next, err := s.store.NextSortOrder(ctx, in.Owner, in.Date)
	if err != nil {
		return nil, err
	}

	var created []task.Task
	for _, title := range in.Titles {
		t := &task.Task{
			OwnerID:   in.Owner.ID,
			OwnerType: in.Owner.Type,
			Date:      in.Date,
			Title:     title,
			Status:    task.StatusPending,
			SortOrder: next,
			CreatedBy: in.CreatedBy,
		}
		var titles []string
		if single {
			t.Description = description
			titles = subtasks
		}
		next++

		t, err = s.store.Create(ctx, t, titles)
		if err != nil {
			return created, err
		}
		created = append(created, *t)
	}

	s.log.Debug("tasks created", "owner", in.Owner, "date", in.Date, "count", len(created))
	return created, nil
}

// UpdateInput lists the fields to change. Nil fields are left alone.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	BlockReason *string
	Date        *string

	// ClearDescription and ClearBlockReason set the column to null.
	ClearDescription bool
	ClearBlockReason bool

	// PostponeTo moves the task to the end of that date's partition and
	// resets it to pending. Date is ignored when it is set.
	PostponeTo string
}

func (in UpdateInput) updates() (map[string]any, error) {
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	} else if in.ClearDescription {
		updates["description"] = nil
	}
	if in.Status != nil {
		st, err := task.ParseStatus(*in.Status)
		if err != nil {
			return nil, invalid("%v", err)
		}
		updates["status"] = st
	}
	if in.BlockReason != nil {
		updates["block_reason"] = *in.BlockReason
	} else if in.ClearBlockReason {
		updates["block_reason"] = nil
	}
	if in.Date != nil {
		updates["date"] = *in.Date
	}
	return updates, nil
}

// Update changes the given fields of a task. With PostponeTo the fields and
// the move are written together, so a failed move leaves the task as it was;
// the status given alongside is dropped since a moved task is pending.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*task.Task, error) {
	updates, err := in.updates()
	if err != nil {
		return nil, err
	}

	if in.PostponeTo != "" {
		return s.store.Move(ctx, id, in.PostponeTo, updates)
	}

	t, err := s.store.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	if t.Status == task.StatusCompleted && updates["status"] == task.StatusCompleted {
		if err := s.cascade(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Complete marks a task completed.
func (s *Service) Complete(ctx context.Context, id string) (*task.Task, error) {
	t, err := s.store.Update(ctx, id, map[string]any{"status": task.StatusCompleted})
	if err != nil {
		return nil, err
	}
	if err := s.cascade(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// CompleteByNumber completes the n-th (1-based) task of the partition.
func (s *Service) CompleteByNumber(ctx context.Context, owner task.Owner, date string, n int) (*task.Task, error) {
	target, err := s.nth(ctx, owner, date, n)
	if err != nil {
		return nil, err
	}
	return s.Complete(ctx, target.ID)
}

// PostponeByNumber moves the n-th task of the (owner, date) partition to
// target. The task lands in its own owner's partition for that date.
func (s *Service) PostponeByNumber(ctx context.Context, owner task.Owner, date, target string, n int) (*task.Task, error) {
	t, err := s.nth(ctx, owner, date, n)
	if err != nil {
		return nil, err
	}
	return s.store.Move(ctx, t.ID, target, nil)
}

// Delete removes a task and returns it.
func (s *Service) Delete(ctx context.Context, id string) (*task.Task, error) {
	return s.store.Delete(ctx, id)
}

func (s *Service) nth(ctx context.Context, owner task.Owner, date string, n int) (*task.Task, error) {
	if n < 1 {
		return nil, invalid("task_number required")
	}
	tasks, err := s.store.List(ctx, owner, date)
	if err != nil {
		return nil, err
	}
	if n > len(tasks) {
		return nil, &OrdinalError{Number: n}
	}
	return &tasks[n-1], nil
}

func (s *Service) cascade(ctx context.Context, taskID string) error {
	if !s.opts.CascadeCompletion {
		return nil
	}
	n, err := s.store.CompleteSubtasks(ctx, taskID)
	if err != nil {
		return err
	}
	s.log.Debug("subtasks completed", "task", taskID, "count", n)
	return nil
}
