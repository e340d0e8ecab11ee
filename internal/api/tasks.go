package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gorevlerim/internal/todo"
	"gorevlerim/pkg/task"
)

type taskView struct {
	Number      int           `json:"number"`
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      task.Status   `json:"status"`
	BlockReason *string       `json:"block_reason"`
	Subtasks    []subtaskView `json:"subtasks"`
}

type subtaskView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Status      task.Status `json:"status"`
	BlockReason *string     `json:"block_reason"`
}

type taskRef struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Status task.Status `json:"status,omitempty"`
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := s.date(q.Get("date"))
	owner, err := s.owner(r, q.Get("owner_id"), q.Get("owner_type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	tasks, err := s.svc.List(r.Context(), owner, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views := make([]taskView, len(tasks))
	completed := 0
	for i, t := range tasks {
		if t.Status == task.StatusCompleted {
			completed++
		}
		subs := make([]subtaskView, len(t.Subtasks))
		for j, st := range t.Subtasks {
			subs[j] = subtaskView{ID: st.ID, Title: st.Title, Status: st.Status, BlockReason: st.BlockReason}
		}
		views[i] = taskView{
			Number:      i + 1,
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			BlockReason: t.BlockReason,
			Subtasks:    subs,
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"date":      date,
		"total":     len(tasks),
		"completed": completed,
		"tasks":     views,
	})
}

// subtaskInput is a subtask given as a plain string or as {"title": ...}.
type subtaskInput string

func (st *subtaskInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*st = subtaskInput(s)
		return nil
	}
	var obj struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("subtask must be a string or an object with a title")
	}
	*st = subtaskInput(obj.Title)
	return nil
}

type createRequest struct {
	Title       string         `json:"title"`
	Titles      []string       `json:"titles"`
	Date        string         `json:"date"`
	Description string         `json:"description"`
	OwnerID     string         `json:"owner_id"`
	OwnerType   string         `json:"owner_type"`
	CreatedBy   string         `json:"created_by"`
	Subtasks    []subtaskInput `json:"subtasks"`
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	owner, err := s.owner(r, req.OwnerID, req.OwnerType)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	titles := req.Titles
	if titles == nil {
		titles = task.SplitTitles(req.Title)
	}
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = s.userID(r)
	}
	subtasks := make([]string, len(req.Subtasks))
	for i, st := range req.Subtasks {
		subtasks[i] = string(st)
	}

	date := s.date(req.Date)
	created, err := s.svc.Create(r.Context(), todo.CreateInput{
		Owner:       owner,
		Date:        date,
		Titles:      titles,
		Description: req.Description,
		Subtasks:    subtasks,
		CreatedBy:   createdBy,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	refs := make([]taskRef, len(created))
	for i, t := range created {
		refs[i] = taskRef{ID: t.ID, Title: t.Title}
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("%d tasks added", len(created)),
		"date":    date,
		"created": refs,
	})
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body map[string]any
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	var in todo.UpdateInput
	var err error
	if in.Title, _, err = stringField(body, "title", false); err != nil {
		s.fail(w, r, err)
		return
	}
	if in.Description, in.ClearDescription, err = stringField(body, "description", true); err != nil {
		s.fail(w, r, err)
		return
	}
	if in.Status, _, err = stringField(body, "status", false); err != nil {
		s.fail(w, r, err)
		return
	}
	if in.BlockReason, in.ClearBlockReason, err = stringField(body, "block_reason", true); err != nil {
		s.fail(w, r, err)
		return
	}
	if in.Date, _, err = stringField(body, "date", false); err != nil {
		s.fail(w, r, err)
		return
	}
	if in.Date != nil {
		d := s.date(*in.Date)
		in.Date = &d
	}

	t, err := s.svc.Update(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%q updated", t.Title),
		"task":    taskRef{ID: t.ID, Title: t.Title, Status: t.Status},
	})
}

type ordinalRequest struct {
	Date       string `json:"date"`
	TargetDate string `json:"target_date"`
	OwnerID    string `json:"owner_id"`
	OwnerType  string `json:"owner_type"`
	TaskNumber int    `json:"task_number"`
}

func (s *Server) handleTaskComplete(w http.ResponseWriter, r *http.Request) {
	var req ordinalRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	owner, err := s.owner(r, req.OwnerID, req.OwnerType)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	t, err := s.svc.CompleteByNumber(r.Context(), owner, s.date(req.Date), req.TaskNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%q completed!", t.Title),
		"task":    taskRef{ID: t.ID, Title: t.Title, Status: task.StatusCompleted},
	})
}

func (s *Server) handleTaskPostpone(w http.ResponseWriter, r *http.Request) {
	var req ordinalRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	owner, err := s.owner(r, req.OwnerID, req.OwnerType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	target := req.TargetDate
	if target == "" {
		target = "tomorrow"
	}

	t, err := s.svc.PostponeByNumber(r.Context(), owner, s.date(req.Date), s.date(target), req.TaskNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%q postponed to %s", t.Title, t.Date),
	})
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%q deleted", t.Title),
	})
}

// owner builds the request's owner, defaulting to the request's user.
func (s *Server) owner(r *http.Request, id, ownerType string) (task.Owner, error) {
	if id == "" {
		id = s.userID(r)
	}
	if ownerType == "" {
		return task.UserOwner(id), nil
	}
	ot, err := task.ParseOwnerType(ownerType)
	if err != nil {
		return task.Owner{}, err
	}
	return task.Owner{ID: id, Type: ot}, nil
}

func (s *Server) date(in string) string {
	return s.days.Normalize(in)
}

// fail reports a handler error. Every error on the task routes is a 400.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Debug("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.writeError(w, http.StatusBadRequest, err.Error())
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

var errNotString = errors.New("must be a string")

// stringField reads an optional string from a decoded body. With nullable,
// an explicit null asks for the column to be cleared.
func stringField(body map[string]any, key string, nullable bool) (*string, bool, error) {
	v, ok := body[key]
	if !ok {
		return nil, false, nil
	}
	switch x := v.(type) {
	case string:
		return &x, false, nil
	case nil:
		if nullable {
			return nil, true, nil
		}
	}
	return nil, false, fmt.Errorf("%s %w", key, errNotString)
}
