package domain

import "time"

// EventType identifies a domain event on the bus.
type EventType string

// EventSubtaskCompletedOnDuplicate fires when a subtask is checked off on a
// task that was duplicated from another task.
const EventSubtaskCompletedOnDuplicate EventType = "task.subtask_completed_on_duplicate"

// SubtaskCompletedOnDuplicate carries the identifiers the resolution handler
// needs to mark the original task partially resolved.
type SubtaskCompletedOnDuplicate struct {
	DuplicateTaskID string
	OriginalTaskID  string
	OwnerID         string
	SubtaskID       string
	OccurredAt      time.Time
}

// Type implements the event interface.
func (SubtaskCompletedOnDuplicate) Type() EventType {
	return EventSubtaskCompletedOnDuplicate
}
