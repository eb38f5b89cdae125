package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authadapters "taskhub/internal/auth/adapters"
	authapp "taskhub/internal/auth/app"
	taskadapters "taskhub/internal/task/adapters"
	taskapp "taskhub/internal/task/app"
	"taskhub/internal/task/ports"
)

type testEnv struct {
	handler http.Handler
	token   string
	now     time.Time
	svc     *taskapp.Service
}

type staticSettings struct{}

func (staticSettings) OwnerSettings(context.Context, string) ports.OwnerSettings {
	return ports.OwnerSettings{Location: time.UTC, NotificationsEnabled: true}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users, sessions := authadapters.NewMemoryStores()
	tokens := authadapters.NewJWTTokenManager("test-secret", "taskhub-test", 15*time.Minute)
	authService := authapp.NewService(users, sessions, tokens, authapp.Config{})

	repo := taskadapters.NewMemoryTaskRepo()
	taskService := taskapp.NewService(repo, staticSettings{}, nil)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	taskService.WithNow(func() time.Time { return now })

	handler := NewRouter(RouterConfig{
		AuthService: authService,
		TaskService: taskService,
		StreamHub:   NewStreamHub(nil),
		Environment: "test",
	})

	env := &testEnv{handler: handler, now: now, svc: taskService}

	env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email": "alice@example.com", "password": "s3cret-pass", "display_name": "Alice",
	}, http.StatusCreated, "")
	var login struct {
		AccessToken string `json:"access_token"`
	}
	env.doInto(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "alice@example.com", "password": "s3cret-pass",
	}, http.StatusOK, "", &login)
	env.token = login.AccessToken
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, wantStatus int, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("%s %s: status = %d, want %d (body: %s)", method, path, rec.Code, wantStatus, rec.Body.String())
	}
	return rec
}

func (e *testEnv) doInto(t *testing.T, method, path string, body any, wantStatus int, token string, out any) {
	t.Helper()
	rec := e.do(t, method, path, body, wantStatus, token)
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestTasksRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/tasks", nil, http.StatusUnauthorized, "")
	env.do(t, http.MethodGet, "/api/tasks", nil, http.StatusUnauthorized, "not-a-token")
}

func TestTaskCRUDFlow(t *testing.T) {
	env := newTestEnv(t)

	var created taskDTO
	env.doInto(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "write report",
		"due_date": "2026-03-11",
		"due_time": "17:00",
		"priority": "high",
	}, http.StatusCreated, env.token, &created)
	if created.Status != "pending" || created.Priority != "high" {
		t.Fatalf("created = %+v", created)
	}
	if created.DueAt == nil {
		t.Fatal("due_at missing from response")
	}

	var listed []taskDTO
	env.doInto(t, http.MethodGet, "/api/tasks?status=pending", nil, http.StatusOK, env.token, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("list = %+v", listed)
	}

	var patched taskDTO
	env.doInto(t, http.MethodPatch, "/api/tasks/"+created.ID, map[string]any{
		"status": "completed",
	}, http.StatusOK, env.token, &patched)
	if patched.Status != "completed" || patched.CompletedAt == nil {
		t.Fatalf("patched = %+v", patched)
	}

	env.do(t, http.MethodDelete, "/api/tasks/"+created.ID, nil, http.StatusNoContent, env.token)
	env.do(t, http.MethodGet, "/api/tasks/"+created.ID, nil, http.StatusNotFound, env.token)
}

func TestTaskValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "  "}, http.StatusBadRequest, env.token)
	env.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title": "x", "due_date": "not-a-date",
	}, http.StatusBadRequest, env.token)
	env.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title": "x", "unexpected_field": true,
	}, http.StatusBadRequest, env.token)
}

func TestLockedTaskReturns423(t *testing.T) {
	env := newTestEnv(t)

	var created taskDTO
	env.doInto(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":            "frozen",
		"due_date":         "2026-03-09",
		"locked_after_due": true,
	}, http.StatusCreated, env.token, &created)
	if created.Status != "overdue" || !created.Locked {
		t.Fatalf("created = %+v", created)
	}

	env.do(t, http.MethodPatch, "/api/tasks/"+created.ID, map[string]any{
		"title": "renamed",
	}, http.StatusLocked, env.token)

	var completed taskDTO
	env.doInto(t, http.MethodPatch, "/api/tasks/"+created.ID, map[string]any{
		"status": "completed",
	}, http.StatusOK, env.token, &completed)
	if completed.Status != "completed" {
		t.Fatalf("completed = %+v", completed)
	}
}

func TestSubtaskEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var created taskDTO
	env.doInto(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "checklist",
		"subtasks": []map[string]any{{"title": "one"}, {"title": "two"}},
	}, http.StatusCreated, env.token, &created)
	if len(created.Subtasks) != 2 {
		t.Fatalf("subtasks = %+v", created.Subtasks)
	}

	var toggled taskDTO
	path := fmt.Sprintf("/api/tasks/%s/subtasks/%s", created.ID, created.Subtasks[0].ID)
	env.doInto(t, http.MethodPatch, path, map[string]any{"completed": true}, http.StatusOK, env.token, &toggled)
	if toggled.Status != "pending" {
		t.Fatalf("status after first subtask = %s", toggled.Status)
	}

	path = fmt.Sprintf("/api/tasks/%s/subtasks/%s", created.ID, created.Subtasks[1].ID)
	env.doInto(t, http.MethodPatch, path, map[string]any{"completed": true}, http.StatusOK, env.token, &toggled)
	if toggled.Status != "completed" {
		t.Fatalf("all subtasks done should complete the task, got %s", toggled.Status)
	}

	var replaced taskDTO
	env.doInto(t, http.MethodPut, "/api/tasks/"+created.ID+"/subtasks", map[string]any{
		"subtasks": []map[string]any{{"title": "fresh"}},
	}, http.StatusOK, env.token, &replaced)
	if len(replaced.Subtasks) != 1 || replaced.Subtasks[0].Title != "fresh" {
		t.Fatalf("replaced = %+v", replaced.Subtasks)
	}
}

func TestDuplicateAndHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var created taskDTO
	env.doInto(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "report",
		"due_date": "2026-03-10",
		"due_time": "14:00",
	}, http.StatusCreated, env.token, &created)

	var copied taskDTO
	env.doInto(t, http.MethodPost, "/api/tasks/"+created.ID+"/duplicate", nil, http.StatusCreated, env.token, &copied)
	if copied.DuplicatedFromID == nil || *copied.DuplicatedFromID != created.ID {
		t.Fatalf("copied = %+v", copied)
	}

	// Two hours before the 14:00 deadline.
	var health healthResponse
	env.doInto(t, http.MethodGet, "/api/tasks/"+created.ID+"/health", nil, http.StatusOK, env.token, &health)
	if health.Level != "warning" || health.Message != "due in less than 3 hours" {
		t.Fatalf("health = %+v", health)
	}
	if health.RemainingSeconds != 2*60*60 {
		t.Fatalf("remaining = %d", health.RemainingSeconds)
	}
}

func TestSnoozeAndMuteEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var created taskDTO
	env.doInto(t, http.MethodPost, "/api/tasks", map[string]any{
		"title": "noisy",
	}, http.StatusCreated, env.token, &created)

	until := env.now.Add(2 * time.Hour)
	var snoozed taskDTO
	env.doInto(t, http.MethodPost, "/api/tasks/"+created.ID+"/snooze", map[string]any{
		"until": until.Format(time.RFC3339),
	}, http.StatusOK, env.token, &snoozed)
	if snoozed.SnoozedUntil == nil || !snoozed.SnoozedUntil.Equal(until) {
		t.Fatalf("snoozed = %+v", snoozed.SnoozedUntil)
	}

	var muted taskDTO
	env.doInto(t, http.MethodPost, "/api/tasks/"+created.ID+"/mute", map[string]any{
		"muted": true,
	}, http.StatusOK, env.token, &muted)
	if !muted.NotificationsMuted {
		t.Fatal("mute did not stick")
	}
}

func TestHealthEndpointPublic(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health", nil, http.StatusOK, "")
}
