package api

import (
	"context"
	"net/http"
	"testing"

	"gorevlerim/pkg/task"
)

type listResponse struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Tasks     []struct {
		Number      int     `json:"number"`
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Status      string  `json:"status"`
		Subtasks    []struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"subtasks"`
	} `json:"tasks"`
}

type createResponse struct {
	Message string `json:"message"`
	Date    string `json:"date"`
	Created []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"created"`
}

func (e *testEnv) list(t *testing.T, query string) listResponse {
	t.Helper()
	w := e.do(t, http.MethodGet, "/tasks"+query, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d: %s", w.Code, w.Body)
	}
	var resp listResponse
	decodeBody(t, w, &resp)
	return resp
}

func (e *testEnv) create(t *testing.T, body map[string]any) createResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/tasks", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", w.Code, w.Body)
	}
	var resp createResponse
	decodeBody(t, w, &resp)
	return resp
}

func TestCreateAndList(t *testing.T) {
	env := newTestEnv(t)

	resp := env.create(t, map[string]any{
		"title":       "Trip",
		"description": "* Buy milk\nPlan trip\n* Call mom",
		"subtasks":    []any{"Pack", map[string]any{"title": "Lock door"}},
	})
	if resp.Date != today || len(resp.Created) != 1 || resp.Message != "1 tasks added" {
		t.Fatalf("create = %+v", resp)
	}

	got := env.list(t, "")
	if got.Date != today || got.Total != 1 || got.Completed != 0 {
		t.Fatalf("list = %+v", got)
	}
	tk := got.Tasks[0]
	if tk.Number != 1 || tk.Title != "Trip" || tk.Status != "pending" {
		t.Errorf("task = %+v", tk)
	}
	if tk.Description == nil || *tk.Description != "Plan trip" {
		t.Errorf("description = %v", tk.Description)
	}
	want := []string{"Buy milk", "Call mom", "Pack", "Lock door"}
	if len(tk.Subtasks) != len(want) {
		t.Fatalf("subtasks = %+v", tk.Subtasks)
	}
	for i, st := range tk.Subtasks {
		if st.Title != want[i] {
			t.Errorf("subtask %d = %q, want %q", i, st.Title, want[i])
		}
	}
}

func TestCreateDefaultsToUserOwner(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, map[string]any{"title": "mine"})

	got, err := env.tasks.List(context.Background(), task.UserOwner(testUser), today)
	if err != nil || len(got) != 1 {
		t.Fatalf("List = %+v, %v", got, err)
	}
	if got[0].CreatedBy != testUser {
		t.Errorf("created_by = %q", got[0].CreatedBy)
	}
}

func TestCreateBatch(t *testing.T) {
	env := newTestEnv(t)
	resp := env.create(t, map[string]any{
		"titles":      []string{"a", "b", "c"},
		"date":        "tomorrow",
		"owner_id":    "g1",
		"owner_type":  "group",
		"description": "dropped\n* dropped too",
	})
	if resp.Date != "2026-10-20" || len(resp.Created) != 3 || resp.Message != "3 tasks added" {
		t.Fatalf("create = %+v", resp)
	}

	got, _ := env.tasks.List(context.Background(), task.GroupOwner("g1"), "2026-10-20")
	for i, tk := range got {
		if tk.SortOrder != i || tk.Description != nil {
			t.Errorf("task %d = order %d description %v", i, tk.SortOrder, tk.Description)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"no title", map[string]any{"date": "today"}, "title or titles required"},
		{"bad owner type", map[string]any{"title": "x", "owner_type": "team"}, `invalid owner type "team"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/tasks", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var body map[string]string
			decodeBody(t, w, &body)
			if body["error"] != tt.want {
				t.Errorf("error = %q, want %q", body["error"], tt.want)
			}
		})
	}
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, map[string]any{"title": "yesterday's", "date": "yesterday"})
	env.create(t, map[string]any{"title": "group", "owner_id": "g1", "owner_type": "group"})

	got := env.list(t, "?date=d%C3%BCn")
	if got.Date != "2026-10-18" || got.Total != 1 || got.Tasks[0].Title != "yesterday's" {
		t.Errorf("yesterday list = %+v", got)
	}
	got = env.list(t, "?owner_id=g1&owner_type=group")
	if got.Total != 1 || got.Tasks[0].Title != "group" {
		t.Errorf("group list = %+v", got)
	}
	got = env.list(t, "")
	if got.Total != 0 {
		t.Errorf("default owner list = %+v", got)
	}
}

func TestUpdateCascades(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t, map[string]any{"title": "parent", "subtasks": []string{"a", "b"}}).Created[0].ID

	w := env.do(t, http.MethodPatch, "/tasks/"+id, map[string]any{"status": "completed", "description": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Message string `json:"message"`
		Task    struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"task"`
	}
	decodeBody(t, w, &resp)
	if resp.Message != `"parent" updated` || resp.Task.Status != "completed" {
		t.Errorf("resp = %+v", resp)
	}

	got := env.list(t, "")
	if got.Completed != 1 {
		t.Errorf("completed = %d", got.Completed)
	}
	for _, st := range got.Tasks[0].Subtasks {
		if st.Status != "completed" {
			t.Errorf("subtask %q = %s, want completed", st.Title, st.Status)
		}
	}
}

func TestUpdateDateKeyword(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t, map[string]any{"title": "move"}).Created[0].ID

	w := env.do(t, http.MethodPatch, "/tasks/"+id, map[string]any{"date": "yarın", "block_reason": "later"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	got, _ := env.tasks.Get(context.Background(), id)
	if got.Date != "2026-10-20" || got.BlockReason == nil || *got.BlockReason != "later" {
		t.Errorf("task = %+v", got)
	}
}

func TestUpdateErrors(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t, map[string]any{"title": "x"}).Created[0].ID

	for name, tt := range map[string]struct {
		id   string
		body any
	}{
		"bad status":    {id, map[string]any{"status": "done"}},
		"null title":    {id, map[string]any{"title": nil}},
		"missing task":  {"missing", map[string]any{"title": "y"}},
		"not an object": {id, []string{"x"}},
	} {
		w := env.do(t, http.MethodPatch, "/tasks/"+tt.id, tt.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}
}

func TestCompleteByNumber(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, map[string]any{"title": "one, two"})
	env.create(t, map[string]any{"title": "three", "subtasks": []string{"s1"}})

	w := env.do(t, http.MethodPost, "/tasks/complete", map[string]any{"task_number": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Message string `json:"message"`
		Task    struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"task"`
	}
	decodeBody(t, w, &resp)
	if resp.Message != `"three" completed!` || resp.Task.Status != "completed" {
		t.Errorf("resp = %+v", resp)
	}
	got := env.list(t, "")
	if got.Tasks[2].Subtasks[0].Status != "completed" {
		t.Error("subtask not completed")
	}

	for name, body := range map[string]map[string]any{
		"out of range": {"task_number": 4},
		"missing":      {},
	} {
		w := env.do(t, http.MethodPost, "/tasks/complete", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", name, w.Code)
		}
		var errBody map[string]string
		decodeBody(t, w, &errBody)
		want := map[string]string{"out of range": "task 4 not found", "missing": "task_number required"}[name]
		if errBody["error"] != want {
			t.Errorf("%s: error = %q, want %q", name, errBody["error"], want)
		}
	}
}

func TestPostponeByNumber(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, map[string]any{"title": "stay, go"})

	w := env.do(t, http.MethodPost, "/tasks/postpone", map[string]any{"task_number": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["message"] != `"go" postponed to 2026-10-20` {
		t.Errorf("message = %q", resp["message"])
	}

	if got := env.list(t, ""); got.Total != 1 || got.Tasks[0].Title != "stay" {
		t.Errorf("source day = %+v", got)
	}
	got := env.list(t, "?date=tomorrow")
	if got.Total != 1 || got.Tasks[0].Title != "go" || got.Tasks[0].Status != "pending" {
		t.Errorf("target day = %+v", got)
	}

	w = env.do(t, http.MethodPost, "/tasks/postpone", map[string]any{"task_number": 1, "target_date": "2026-11-01"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if got := env.list(t, "?date=2026-11-01"); got.Total != 1 {
		t.Errorf("explicit target = %+v", got)
	}
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t, map[string]any{"title": "bye"}).Created[0].ID

	w := env.do(t, http.MethodDelete, "/tasks/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["message"] != `"bye" deleted` {
		t.Errorf("message = %q", resp["message"])
	}

	if w := env.do(t, http.MethodDelete, "/tasks/"+id, nil); w.Code != http.StatusBadRequest {
		t.Errorf("second delete: status = %d, want 400", w.Code)
	}
}
