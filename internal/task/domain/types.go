package domain

import "time"

// Status represents the lifecycle state of a task.
type Status string

const (
	// StatusPending indicates an open task whose deadline has not passed.
	StatusPending Status = "pending"
	// StatusOverdue indicates an open task whose deadline has passed.
	StatusOverdue Status = "overdue"
	// StatusCompleted indicates a closed task.
	StatusCompleted Status = "completed"
)

// IsValid reports whether the status is one of the defined states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusOverdue, StatusCompleted:
		return true
	}
	return false
}

// Priority orders tasks by importance.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether the priority is one of the defined levels.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Subtask is a single checklist item owned by a task.
type Subtask struct {
	ID        string
	TaskID    string
	Title     string
	Completed bool
}

// Task is the aggregate the service revolves around.
//
// DueDate holds a calendar date ("2006-01-02") and DueTime an optional
// time-of-day ("15:04"); DueAt caches the resolved due instant so stores can
// index on it. CompletedAt is set iff Status is completed; OverdueAt only
// while Status is overdue.
type Task struct {
	ID      string
	OwnerID string

	Title       string
	Description string
	Notes       string
	Category    string
	Tags        []string
	Priority    Priority

	DueDate *string
	DueTime *string
	DueAt   *time.Time
	StartAt *time.Time
	EndAt   *time.Time

	Status      Status
	CompletedAt *time.Time
	OverdueAt   *time.Time

	LockedAfterDue     bool
	NotificationsMuted bool
	SnoozedUntil       *time.Time
	PartiallyResolved  bool
	NotifyOnStart      bool

	DuplicatedFromID *string

	Subtasks []Subtask

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllSubtasksCompleted reports whether the task has subtasks and every one of
// them is completed.
func (t Task) AllSubtasksCompleted() bool {
	if len(t.Subtasks) == 0 {
		return false
	}
	for _, s := range t.Subtasks {
		if !s.Completed {
			return false
		}
	}
	return true
}

// SnoozedAt reports whether notifications for the task are snoozed at now.
func (t Task) SnoozedAt(now time.Time) bool {
	return t.SnoozedUntil != nil && t.SnoozedUntil.After(now)
}

// Clone returns a deep copy safe to hand across store boundaries.
func (t Task) Clone() Task {
	cloned := t
	if t.Tags != nil {
		cloned.Tags = append([]string(nil), t.Tags...)
	}
	if t.Subtasks != nil {
		cloned.Subtasks = append([]Subtask(nil), t.Subtasks...)
	}
	cloned.DueDate = cloneStringPtr(t.DueDate)
	cloned.DueTime = cloneStringPtr(t.DueTime)
	cloned.DueAt = cloneTimePtr(t.DueAt)
	cloned.StartAt = cloneTimePtr(t.StartAt)
	cloned.EndAt = cloneTimePtr(t.EndAt)
	cloned.CompletedAt = cloneTimePtr(t.CompletedAt)
	cloned.OverdueAt = cloneTimePtr(t.OverdueAt)
	cloned.SnoozedUntil = cloneTimePtr(t.SnoozedUntil)
	cloned.DuplicatedFromID = cloneStringPtr(t.DuplicatedFromID)
	return cloned
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
