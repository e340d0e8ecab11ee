// Package mcp exposes the task operations as MCP tools for an AI assistant.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"gorevlerim/internal/todo"
	"gorevlerim/pkg/day"
	"gorevlerim/pkg/task"
)

// OwnerResolver picks the owner of a call from an optional group id.
type OwnerResolver interface {
	Resolve(ctx context.Context, groupID string) (task.Owner, error)
}

type server struct {
	svc    *todo.Service
	owners OwnerResolver
	days   day.Normalizer
	userID string
	log    *slog.Logger
}

type listTasksArgs struct {
	Date    string `json:"date,omitempty" jsonschema:"Date as YYYY-MM-DD, today or tomorrow. Defaults to today"`
	GroupID string `json:"group_id,omitempty" jsonschema:"Group id. The personal group is used when omitted"`
}

type addTaskArgs struct {
	Title       string `json:"title" jsonschema:"Task title. Separate several tasks with commas: 'Market, Laundry, Pay bills'"`
	Date        string `json:"date,omitempty" jsonschema:"Date as YYYY-MM-DD, today or tomorrow. Defaults to today"`
	Description string `json:"description,omitempty" jsonschema:"Description. Start a line with '* ' to make it a subtask"`
	GroupID     string `json:"group_id,omitempty" jsonschema:"Group id. The personal group is used when omitted"`
}

type updateTaskArgs struct {
	TaskID      string  `json:"task_id" jsonschema:"Task id"`
	Title       string  `json:"title,omitempty" jsonschema:"New title"`
	Description *string `json:"description,omitempty" jsonschema:"New description"`
	Status      string  `json:"status,omitempty" jsonschema:"New status"`
	BlockReason string  `json:"block_reason,omitempty" jsonschema:"Why the task is blocked (with status blocked)"`
	PostponeTo  string  `json:"postpone_to,omitempty" jsonschema:"Postpone to this date (YYYY-MM-DD or tomorrow)"`
}

type completeTaskArgs struct {
	TaskNumber int    `json:"task_number,omitempty" jsonschema:"Task number in the day's list, starting at 1"`
	TaskID     string `json:"task_id,omitempty" jsonschema:"Task id. Takes precedence over task_number"`
	Date       string `json:"date,omitempty" jsonschema:"Date for task_number. Defaults to today"`
	GroupID    string `json:"group_id,omitempty" jsonschema:"Group id. The personal group is used when omitted"`
}

type deleteTaskArgs struct {
	TaskID string `json:"task_id" jsonschema:"Id of the task to delete"`
}

// NewServer creates an MCP server with the five task tools. Tasks are
// created on behalf of userID. Completing a task here never touches its
// subtasks, so svc should be built without cascading. A nil logger discards
// tool errors.
func NewServer(svc *todo.Service, owners OwnerResolver, userID string, log *slog.Logger) *mcpsdk.Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &server{svc: svc, owners: owners, userID: userID, log: log}

	srv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "gorevlerim",
		Version: "1.0.0",
	}, nil)

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "list_tasks",
		Description: "List the tasks of a day",
	}, s.listTasks)

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "add_task",
		Description: "Add a task. Separate titles with commas to add several at once.",
	}, s.addTask)

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "update_task",
		Description: "Update a task (title, description, status)",
		InputSchema: updateTaskSchema(),
	}, s.updateTask)

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "complete_task",
		Description: "Mark a task completed by its number in the day's list or by id",
	}, s.completeTask)

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "delete_task",
		Description: "Delete a task",
	}, s.deleteTask)

	return srv
}

func updateTaskSchema() *jsonschema.Schema {
	schema, err := jsonschema.For[updateTaskArgs](nil)
	if err != nil {
		panic(fmt.Sprintf("update_task schema: %v", err))
	}
	enum := make([]any, len(task.Statuses))
	for i, st := range task.Statuses {
		enum[i] = string(st)
	}
	schema.Properties["status"].Enum = enum
	return schema
}

func (s *server) listTasks(ctx context.Context, _ *mcpsdk.CallToolRequest, args listTasksArgs) (*mcpsdk.CallToolResult, any, error) {
	date := s.days.Normalize(args.Date)
	owner, err := s.owners.Resolve(ctx, args.GroupID)
	if err != nil {
		return s.failure("list_tasks", err), nil, nil
	}
	tasks, err := s.svc.List(ctx, owner, date)
	if err != nil {
		return s.failure("list_tasks", err), nil, nil
	}
	return text(formatList(date, tasks)), nil, nil
}

func (s *server) addTask(ctx context.Context, _ *mcpsdk.CallToolRequest, args addTaskArgs) (*mcpsdk.CallToolResult, any, error) {
	date := s.days.Normalize(args.Date)
	owner, err := s.owners.Resolve(ctx, args.GroupID)
	if err != nil {
		return s.failure("add_task", err), nil, nil
	}
	created, err := s.svc.Create(ctx, todo.CreateInput{
		Owner:       owner,
		Date:        date,
		Titles:      task.SplitTitles(args.Title),
		Description: args.Description,
		CreatedBy:   s.userID,
	})
	if err != nil {
		return s.failure("add_task", err), nil, nil
	}
	return text(formatCreated(date, created)), nil, nil
}

func (s *server) updateTask(ctx context.Context, _ *mcpsdk.CallToolRequest, args updateTaskArgs) (*mcpsdk.CallToolResult, any, error) {
	in := todo.UpdateInput{Description: args.Description}
	if args.Title != "" {
		in.Title = &args.Title
	}
	if args.Status != "" {
		in.Status = &args.Status
	}
	if args.BlockReason != "" {
		in.BlockReason = &args.BlockReason
	}
	if args.PostponeTo != "" {
		in.PostponeTo = s.days.Normalize(args.PostponeTo)
	}

	t, err := s.svc.Update(ctx, args.TaskID, in)
	if err != nil {
		return s.failure("update_task", err), nil, nil
	}
	return text(fmt.Sprintf("✅ %q updated. Status: %s", t.Title, t.Status)), nil, nil
}

var errNoTarget = errors.New("task_number or task_id required")

func (s *server) completeTask(ctx context.Context, _ *mcpsdk.CallToolRequest, args completeTaskArgs) (*mcpsdk.CallToolResult, any, error) {
	var (
		t   *task.Task
		err error
	)
	switch {
	case args.TaskID != "":
		t, err = s.svc.Complete(ctx, args.TaskID)
	case args.TaskNumber > 0:
		var owner task.Owner
		owner, err = s.owners.Resolve(ctx, args.GroupID)
		if err == nil {
			t, err = s.svc.CompleteByNumber(ctx, owner, s.days.Normalize(args.Date), args.TaskNumber)
		}
	default:
		err = errNoTarget
	}
	if err != nil {
		return s.failure("complete_task", err), nil, nil
	}
	return text(fmt.Sprintf("✅ %q completed!", t.Title)), nil, nil
}

func (s *server) deleteTask(ctx context.Context, _ *mcpsdk.CallToolRequest, args deleteTaskArgs) (*mcpsdk.CallToolResult, any, error) {
	t, err := s.svc.Delete(ctx, args.TaskID)
	if err != nil {
		return s.failure("delete_task", err), nil, nil
	}
	return text(fmt.Sprintf("🗑️ %q deleted.", t.Title)), nil, nil
}

func text(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
	}
}

func (s *server) failure(tool string, err error) *mcpsdk.CallToolResult {
	s.log.Debug("mcp tool error", "tool", tool, "error", err)
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "Error: " + err.Error()}},
	}
}
