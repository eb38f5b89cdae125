package domain

import "time"

// ApplyStatusChange moves the task to the requested status at now,
// maintaining the timestamp invariants: CompletedAt is set exactly when the
// task is completed, OverdueAt exactly while it is overdue.
//
// Explicit requests are honored literally. A task pushed back to pending
// while its deadline has already passed stays pending until the next sweep
// re-evaluates it.
func ApplyStatusChange(t Task, requested Status, now time.Time, loc *time.Location) Task {
	switch requested {
	case StatusCompleted:
		if t.Status != StatusCompleted {
			completedAt := now
			t.CompletedAt = &completedAt
		}
		t.Status = StatusCompleted
		t.OverdueAt = nil
	case StatusPending:
		t.CompletedAt = nil
		t.Status = StatusPending
		t.OverdueAt = nil
	case StatusOverdue:
		t.CompletedAt = nil
		if t.Status != StatusOverdue || t.OverdueAt == nil {
			overdueAt := now
			t.OverdueAt = &overdueAt
		}
		t.Status = StatusOverdue
	}
	return t
}

// ReconcileDue re-evaluates an open task's status after its due fields
// changed. A completed task is left alone; completion always wins over a due
// edit in the same request.
func ReconcileDue(t Task, now time.Time, loc *time.Location) Task {
	if t.Status == StatusCompleted {
		return t
	}
	if t.DueInstant(loc) == nil {
		// No deadline, nothing to derive from. An overdue task whose
		// deadline was removed goes back to pending.
		if t.Status == StatusOverdue {
			t.Status = StatusPending
			t.OverdueAt = nil
		}
		return t
	}
	return deriveOpenState(t, now, loc)
}

// MarkOverdueIfDue flips a pending task whose due instant has passed to
// overdue. It is idempotent: already-overdue and completed tasks are
// returned unchanged. The second result reports whether a transition
// happened.
func MarkOverdueIfDue(t Task, now time.Time, loc *time.Location) (Task, bool) {
	if t.Status != StatusPending {
		return t, false
	}
	due := t.DueInstant(loc)
	if due == nil || !due.Before(now) {
		return t, false
	}
	t.Status = StatusOverdue
	overdueAt := now
	t.OverdueAt = &overdueAt
	return t, true
}

func deriveOpenState(t Task, now time.Time, loc *time.Location) Task {
	due := t.DueInstant(loc)
	if due != nil && due.Before(now) {
		if t.Status != StatusOverdue || t.OverdueAt == nil {
			overdueAt := now
			t.OverdueAt = &overdueAt
		}
		t.Status = StatusOverdue
		return t
	}
	t.Status = StatusPending
	t.OverdueAt = nil
	return t
}
