// Package adapters provides the persistence implementations of the task
// repository port: an in-memory store for tests and single-node setups, and
// a Postgres store for production.
package adapters

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskhub/internal/task/domain"
	"taskhub/internal/task/ports"
)

// MemoryTaskRepo keeps tasks in process memory. Safe for concurrent use.
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
}

// NewMemoryTaskRepo returns an empty in-memory repository.
func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{tasks: make(map[string]domain.Task)}
}

var _ ports.TaskRepository = (*MemoryTaskRepo)(nil)

func (r *MemoryTaskRepo) Create(_ context.Context, task domain.Task) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task.Clone()
	return task.Clone(), nil
}

func (r *MemoryTaskRepo) Get(_ context.Context, ownerID, id string) (domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return domain.Task{}, domain.ErrNotFound
	}
	return task.Clone(), nil
}

func (r *MemoryTaskRepo) Update(_ context.Context, task domain.Task, expectedUpdatedAt time.Time) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[task.ID]
	if !ok || stored.OwnerID != task.OwnerID {
		return domain.Task{}, domain.ErrNotFound
	}
	if !stored.UpdatedAt.Equal(expectedUpdatedAt) {
		return domain.Task{}, domain.ErrConflict
	}
	r.tasks[task.ID] = task.Clone()
	return task.Clone(), nil
}

func (r *MemoryTaskRepo) List(_ context.Context, ownerID string, filter ports.ListFilter) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Task
	for _, task := range r.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Category != "" && task.Category != filter.Category {
			continue
		}
		out = append(out, task.Clone())
	}
	// Due-soonest first, tasks without a deadline last.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].DueAt, out[j].DueAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryTaskRepo) ListDueBefore(_ context.Context, before time.Time) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Task
	for _, task := range r.tasks {
		if task.Status != domain.StatusPending || task.DueAt == nil {
			continue
		}
		if task.DueAt.Before(before) {
			out = append(out, task.Clone())
		}
	}
	return out, nil
}

func (r *MemoryTaskRepo) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(r.tasks, id)
	// The duplicate link is weak: duplicates of the deleted task keep
	// living, but their back-reference is nulled so it never dangles.
	for key, other := range r.tasks {
		if other.DuplicatedFromID != nil && *other.DuplicatedFromID == id {
			other.DuplicatedFromID = nil
			r.tasks[key] = other
		}
	}
	return nil
}

func (r *MemoryTaskRepo) ReplaceSubtasks(_ context.Context, ownerID, taskID string, subtasks []domain.Subtask) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return domain.Task{}, domain.ErrNotFound
	}
	task = task.Clone()
	task.Subtasks = append([]domain.Subtask(nil), subtasks...)
	task.UpdatedAt = time.Now()
	r.tasks[taskID] = task
	return task.Clone(), nil
}
