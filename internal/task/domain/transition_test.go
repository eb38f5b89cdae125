package domain

import (
	"testing"
	"time"
)

func TestApplyStatusChangeComplete(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	overdueAt := now.Add(-time.Hour)
	task := Task{Status: StatusOverdue, OverdueAt: &overdueAt}

	task = ApplyStatusChange(task, StatusCompleted, now, time.UTC)
	if task.Status != StatusCompleted {
		t.Fatalf("status = %s", task.Status)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Fatalf("completed_at = %v", task.CompletedAt)
	}
	if task.OverdueAt != nil {
		t.Fatal("overdue_at should be cleared on completion")
	}
}

func TestApplyStatusChangeCompleteIdempotent(t *testing.T) {
	first := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	task := ApplyStatusChange(Task{Status: StatusPending}, StatusCompleted, first, time.UTC)
	task = ApplyStatusChange(task, StatusCompleted, first.Add(time.Hour), time.UTC)
	if !task.CompletedAt.Equal(first) {
		t.Fatalf("completed_at moved on repeat completion: %v", task.CompletedAt)
	}
}

func TestApplyStatusChangeHonorsExplicitRequest(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	completedAt := now.Add(-time.Hour)
	overdueAt := now.Add(-2 * time.Hour)

	reopened := Task{Status: StatusCompleted, CompletedAt: &completedAt, DueDate: strPtr("2026-03-11")}
	reopened = ApplyStatusChange(reopened, StatusPending, now, time.UTC)
	if reopened.Status != StatusPending {
		t.Fatalf("status = %s", reopened.Status)
	}
	if reopened.CompletedAt != nil {
		t.Fatal("completed_at should be cleared on reopen")
	}

	// An explicit pending request is taken literally even with a past due
	// date; the sweep flips it back on its next pass.
	rescued := Task{Status: StatusOverdue, OverdueAt: &overdueAt, DueDate: strPtr("2026-03-09")}
	rescued = ApplyStatusChange(rescued, StatusPending, now, time.UTC)
	if rescued.Status != StatusPending {
		t.Fatalf("explicit pending request ignored, got %s", rescued.Status)
	}
	if rescued.OverdueAt != nil {
		t.Fatalf("overdue_at should be cleared, got %v", rescued.OverdueAt)
	}

	flagged := ApplyStatusChange(Task{Status: StatusPending}, StatusOverdue, now, time.UTC)
	if flagged.Status != StatusOverdue || flagged.OverdueAt == nil || !flagged.OverdueAt.Equal(now) {
		t.Fatalf("explicit overdue request: status=%s overdue_at=%v", flagged.Status, flagged.OverdueAt)
	}

	repeat := ApplyStatusChange(flagged, StatusOverdue, now.Add(time.Minute), time.UTC)
	if !repeat.OverdueAt.Equal(*flagged.OverdueAt) {
		t.Fatal("overdue_at must not move on a same-status request")
	}
}

func TestReconcileDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	overdueAt := now.Add(-time.Hour)

	rescued := Task{Status: StatusOverdue, OverdueAt: &overdueAt, DueDate: strPtr("2026-03-12")}
	rescued = ReconcileDue(rescued, now, time.UTC)
	if rescued.Status != StatusPending || rescued.OverdueAt != nil {
		t.Fatalf("pushing the deadline out should rescue the task: %s %v", rescued.Status, rescued.OverdueAt)
	}

	lapsed := Task{Status: StatusPending, DueDate: strPtr("2026-03-09")}
	lapsed = ReconcileDue(lapsed, now, time.UTC)
	if lapsed.Status != StatusOverdue {
		t.Fatalf("pulling the deadline in should mark overdue, got %s", lapsed.Status)
	}

	cleared := Task{Status: StatusOverdue, OverdueAt: &overdueAt}
	cleared = ReconcileDue(cleared, now, time.UTC)
	if cleared.Status != StatusPending || cleared.OverdueAt != nil {
		t.Fatalf("removing the deadline should reset to pending: %s %v", cleared.Status, cleared.OverdueAt)
	}

	done := Task{Status: StatusCompleted, DueDate: strPtr("2026-03-09")}
	if got := ReconcileDue(done, now, time.UTC); got.Status != StatusCompleted {
		t.Fatalf("completed tasks must not change: %s", got.Status)
	}
}

func TestMarkOverdueIfDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	task := Task{Status: StatusPending, DueDate: strPtr("2026-03-09")}
	task, changed := MarkOverdueIfDue(task, now, time.UTC)
	if !changed || task.Status != StatusOverdue || task.OverdueAt == nil {
		t.Fatalf("expected transition, got changed=%v status=%s", changed, task.Status)
	}

	again, changed := MarkOverdueIfDue(task, now.Add(time.Minute), time.UTC)
	if changed {
		t.Fatal("sweep must be idempotent")
	}
	if !again.OverdueAt.Equal(*task.OverdueAt) {
		t.Fatal("overdue_at must not move on repeat sweeps")
	}

	if _, changed := MarkOverdueIfDue(Task{Status: StatusPending, DueDate: strPtr("2026-03-11")}, now, time.UTC); changed {
		t.Fatal("future-due task must stay pending")
	}
	if _, changed := MarkOverdueIfDue(Task{Status: StatusPending}, now, time.UTC); changed {
		t.Fatal("task without a deadline must stay pending")
	}
	if _, changed := MarkOverdueIfDue(Task{Status: StatusCompleted, DueDate: strPtr("2026-03-09")}, now, time.UTC); changed {
		t.Fatal("completed task must not be swept")
	}
}
