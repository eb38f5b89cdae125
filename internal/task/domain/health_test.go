package domain

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestClassifyBands(t *testing.T) {
	due := Task{Status: StatusPending, DueDate: strPtr("2026-03-10"), DueTime: strPtr("17:00")}
	at := func(hour, min int) time.Time {
		return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
	}

	cases := []struct {
		name    string
		now     time.Time
		level   HealthLevel
		message string
		notify  bool
	}{
		{"exactly one hour out", at(16, 0), HealthWarning, "due in less than 3 hours", true},
		{"fifty-nine minutes out", at(16, 1), HealthCritical, "due in less than 1 hour", true},
		{"exactly three hours out", at(14, 0), HealthWarning, "due within 24 hours", true},
		{"two hours out", at(15, 0), HealthWarning, "due in less than 3 hours", true},
		{"twenty hours out", time.Date(2026, 3, 9, 21, 0, 0, 0, time.UTC), HealthWarning, "due within 24 hours", true},
		{"three days out", time.Date(2026, 3, 7, 17, 0, 0, 0, time.UTC), HealthInfo, "upcoming task", false},
		{"past due", at(17, 1), HealthCritical, "task is overdue", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Classify(due, tc.now, time.UTC)
			if h.Level != tc.level {
				t.Fatalf("level = %s, want %s", h.Level, tc.level)
			}
			if h.Message != tc.message {
				t.Fatalf("message = %q, want %q", h.Message, tc.message)
			}
			if h.ShouldNotify != tc.notify {
				t.Fatalf("should_notify = %v, want %v", h.ShouldNotify, tc.notify)
			}
		})
	}
}

func TestClassifyOverdueReportsElapsed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	overdueAt := now.Add(-2 * time.Hour)

	swept := Classify(Task{
		Status:    StatusOverdue,
		OverdueAt: &overdueAt,
		DueDate:   strPtr("2026-03-09"),
	}, now, time.UTC)
	if swept.Level != HealthCritical || swept.Message != "task is overdue" || !swept.ShouldNotify {
		t.Fatalf("unexpected verdict: %+v", swept)
	}
	if swept.TimeRemaining != 2*time.Hour {
		t.Fatalf("elapsed = %v, want 2h since overdue_at", swept.TimeRemaining)
	}
	if swept.Score != 0 {
		t.Fatalf("overdue score = %d", swept.Score)
	}

	// Without a recorded overdue_at the due instant anchors the elapsed time.
	unswept := Classify(Task{
		Status:  StatusOverdue,
		DueDate: strPtr("2026-03-10"),
		DueTime: strPtr("11:30"),
	}, now, time.UTC)
	if unswept.TimeRemaining != 30*time.Minute {
		t.Fatalf("elapsed = %v, want 30m since the due instant", unswept.TimeRemaining)
	}
}

func TestClassifyTerminalCases(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	done := Classify(Task{Status: StatusCompleted, DueDate: strPtr("2026-03-01")}, now, time.UTC)
	if done.Level != HealthNone || done.ShouldNotify || done.Score != 100 {
		t.Fatalf("completed task health = %+v", done)
	}

	free := Classify(Task{Status: StatusPending}, now, time.UTC)
	if free.Level != HealthNone || free.ShouldNotify || free.Score != 100 {
		t.Fatalf("deadline-free task health = %+v", free)
	}
}

func TestClassifyTimeRemaining(t *testing.T) {
	task := Task{Status: StatusPending, DueDate: strPtr("2026-03-10"), DueTime: strPtr("17:00")}

	h := Classify(task, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), time.UTC)
	if h.TimeRemaining != 2*time.Hour {
		t.Fatalf("time_remaining = %v", h.TimeRemaining)
	}
	h = Classify(task, time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC), time.UTC)
	if h.TimeRemaining != -time.Hour {
		t.Fatalf("past-due time_remaining = %v", h.TimeRemaining)
	}
}

func TestHealthScoreMonotone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(-48, 240).Draw(t, "a")
		b := rapid.Float64Range(-48, 240).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		if healthScore(a) > healthScore(b) {
			t.Fatalf("score fell as the deadline moved out: score(%v)=%d > score(%v)=%d",
				a, healthScore(a), b, healthScore(b))
		}
	})
}

func TestHealthScoreBounds(t *testing.T) {
	if got := healthScore(-5); got != 0 {
		t.Fatalf("overdue score = %d", got)
	}
	if got := healthScore(200); got != 100 {
		t.Fatalf("far-out score = %d", got)
	}
	if got := healthScore(168); got != 100 {
		t.Fatalf("week-out score = %d", got)
	}
}
