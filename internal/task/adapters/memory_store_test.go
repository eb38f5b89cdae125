package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskhub/internal/task/domain"
	"taskhub/internal/task/ports"
)

func seedTask(t *testing.T, repo *MemoryTaskRepo, id, owner string, status domain.Status) domain.Task {
	t.Helper()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	task, err := repo.Create(context.Background(), domain.Task{
		ID:        id,
		OwnerID:   owner,
		Title:     "task " + id,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return task
}

func TestMemoryRepoOwnerIsolation(t *testing.T) {
	repo := NewMemoryTaskRepo()
	seedTask(t, repo, "t1", "alice", domain.StatusPending)

	if _, err := repo.Get(context.Background(), "bob", "t1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if err := repo.Delete(context.Background(), "bob", "t1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if _, err := repo.Get(context.Background(), "alice", "t1"); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
}

func TestMemoryRepoUpdateConflict(t *testing.T) {
	repo := NewMemoryTaskRepo()
	task := seedTask(t, repo, "t1", "alice", domain.StatusPending)

	first := task.Clone()
	first.Title = "first writer"
	first.UpdatedAt = task.UpdatedAt.Add(time.Second)
	if _, err := repo.Update(context.Background(), first, task.UpdatedAt); err != nil {
		t.Fatalf("first update: %v", err)
	}

	second := task.Clone()
	second.Title = "second writer"
	if _, err := repo.Update(context.Background(), second, task.UpdatedAt); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMemoryRepoListFilter(t *testing.T) {
	repo := NewMemoryTaskRepo()
	seedTask(t, repo, "t1", "alice", domain.StatusPending)
	seedTask(t, repo, "t2", "alice", domain.StatusCompleted)
	seedTask(t, repo, "t3", "bob", domain.StatusPending)

	all, err := repo.List(context.Background(), "alice", ports.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks for alice, got %d", len(all))
	}

	pending, err := repo.List(context.Background(), "alice", ports.ListFilter{Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "t1" {
		t.Fatalf("unexpected filtered result: %+v", pending)
	}
}

func TestMemoryRepoDeleteClearsDuplicateBackReferences(t *testing.T) {
	repo := NewMemoryTaskRepo()
	original := seedTask(t, repo, "orig", "alice", domain.StatusPending)

	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	originalID := original.ID
	if _, err := repo.Create(context.Background(), domain.Task{
		ID:               "copy",
		OwnerID:          "alice",
		Title:            "task copy",
		Status:           domain.StatusPending,
		DuplicatedFromID: &originalID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete(context.Background(), "alice", originalID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	dup, err := repo.Get(context.Background(), "alice", "copy")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dup.DuplicatedFromID != nil {
		t.Fatalf("back-reference should be cleared, still points at %q", *dup.DuplicatedFromID)
	}
}

func TestMemoryRepoListOrdersByDueSoonest(t *testing.T) {
	repo := NewMemoryTaskRepo()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	later := now.Add(48 * time.Hour)
	soon := now.Add(2 * time.Hour)

	mk := func(id string, due *time.Time, createdAt time.Time) {
		if _, err := repo.Create(context.Background(), domain.Task{
			ID:        id,
			OwnerID:   "alice",
			Title:     "task " + id,
			Status:    domain.StatusPending,
			DueAt:     due,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mk("no-due", nil, now)
	mk("later", &later, now.Add(time.Minute))
	mk("soon", &soon, now.Add(2*time.Minute))

	out, err := repo.List(context.Background(), "alice", ports.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []string{out[0].ID, out[1].ID, out[2].ID}
	want := []string{"soon", "later", "no-due"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", got, want)
		}
	}
}

func TestMemoryRepoListDueBefore(t *testing.T) {
	repo := NewMemoryTaskRepo()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	mk := func(id string, status domain.Status, dueAt *time.Time) {
		if _, err := repo.Create(context.Background(), domain.Task{
			ID: id, OwnerID: "alice", Title: id, Status: status, DueAt: dueAt,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mk("due", domain.StatusPending, &past)
	mk("not-yet", domain.StatusPending, &future)
	mk("no-deadline", domain.StatusPending, nil)
	mk("already-overdue", domain.StatusOverdue, &past)

	due, err := repo.ListDueBefore(context.Background(), now)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 1 || due[0].ID != "due" {
		t.Fatalf("unexpected due set: %+v", due)
	}
}

func TestMemoryRepoReplaceSubtasks(t *testing.T) {
	repo := NewMemoryTaskRepo()
	task := seedTask(t, repo, "t1", "alice", domain.StatusPending)

	updated, err := repo.ReplaceSubtasks(context.Background(), "alice", "t1", []domain.Subtask{
		{ID: "s1", TaskID: "t1", Title: "step one"},
		{ID: "s2", TaskID: "t1", Title: "step two", Completed: true},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(updated.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(updated.Subtasks))
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) {
		t.Fatal("replace must bump updated_at")
	}

	if _, err := repo.ReplaceSubtasks(context.Background(), "bob", "t1", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}
