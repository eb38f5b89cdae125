// Package ports defines the interfaces the task service depends on.
// Adapters implement them; the app layer consumes them.
package ports

import (
	"context"
	"time"

	"taskhub/internal/task/domain"
)

// ListFilter narrows a List call. Zero value means no filtering.
type ListFilter struct {
	Status   domain.Status
	Category string
}

// TaskRepository persists tasks together with their subtasks.
//
// Update takes the updated_at the caller read the task at and fails with
// domain.ErrConflict when the stored row has moved on since.
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	Get(ctx context.Context, ownerID, id string) (domain.Task, error)
	Update(ctx context.Context, task domain.Task, expectedUpdatedAt time.Time) (domain.Task, error)
	List(ctx context.Context, ownerID string, filter ListFilter) ([]domain.Task, error)
	ListDueBefore(ctx context.Context, before time.Time) ([]domain.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	ReplaceSubtasks(ctx context.Context, ownerID, taskID string, subtasks []domain.Subtask) (domain.Task, error)
}

// Notification is a single push-worthy event about a task.
type Notification struct {
	TaskID  string      `json:"task_id"`
	Kind    string      `json:"kind"`
	Level   string      `json:"level,omitempty"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
	Health  *HealthInfo `json:"health,omitempty"`
}

// HealthInfo is the classifier verdict attached to a deadline notification.
type HealthInfo struct {
	Level            string `json:"level"`
	Score            int    `json:"score"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

// NotificationSink delivers notifications to a user's active clients and
// reports which users currently have a client attached.
type NotificationSink interface {
	Publish(userID string, n Notification)
	ActiveUsers() []string
}
