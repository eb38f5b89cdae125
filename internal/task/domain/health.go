package domain

import "time"

// HealthLevel grades how urgent a task is.
type HealthLevel string

const (
	HealthNone     HealthLevel = "none"
	HealthInfo     HealthLevel = "info"
	HealthWarning  HealthLevel = "warning"
	HealthCritical HealthLevel = "critical"
)

// Health is the classifier's verdict on a single task at a single instant.
type Health struct {
	Level         HealthLevel
	Message       string
	ShouldNotify  bool
	TimeRemaining time.Duration
	Score         int
}

// Classify grades the task's urgency at now.
//
// The bands are keyed off the due instant: less than an hour out is critical,
// under three hours and within a day are warnings, further out is
// informational. Completed tasks and tasks without a deadline are healthy and
// never notify. An overdue task is always critical with score 0, and its
// TimeRemaining reports how long it has been overdue, anchored on OverdueAt
// when the sweep recorded one.
func Classify(t Task, now time.Time, loc *time.Location) Health {
	if t.Status == StatusCompleted {
		return Health{Level: HealthNone, Message: "completed", Score: 100}
	}
	due := t.DueInstant(loc)
	if t.Status == StatusOverdue {
		h := Health{Level: HealthCritical, Message: "task is overdue", ShouldNotify: true}
		switch {
		case t.OverdueAt != nil:
			h.TimeRemaining = now.Sub(*t.OverdueAt)
		case due != nil:
			h.TimeRemaining = now.Sub(*due)
		}
		return h
	}
	if due == nil {
		return Health{Level: HealthNone, Message: "no deadline", Score: 100}
	}

	remaining := due.Sub(now)
	hours := remaining.Hours()
	h := Health{TimeRemaining: remaining, Score: healthScore(hours)}
	switch {
	case hours < 0:
		h.Level = HealthCritical
		h.Message = "task is overdue"
		h.ShouldNotify = true
	case hours < 1:
		h.Level = HealthCritical
		h.Message = "due in less than 1 hour"
		h.ShouldNotify = true
	case hours < 3:
		h.Level = HealthWarning
		h.Message = "due in less than 3 hours"
		h.ShouldNotify = true
	case hours <= 24:
		h.Level = HealthWarning
		h.Message = "due within 24 hours"
		h.ShouldNotify = true
	default:
		h.Level = HealthInfo
		h.Message = "upcoming task"
	}
	return h
}

// healthScore maps hours-until-due onto a 0-100 scale, piecewise linear and
// continuous across the band edges so the score only falls as the deadline
// approaches.
func healthScore(hours float64) int {
	switch {
	case hours >= 168:
		return 100
	case hours >= 72:
		return int(80 + (hours-72)/96*19)
	case hours >= 24:
		return int(60 + (hours-24)/48*19)
	case hours >= 12:
		return int(40 + (hours-12)/12*19)
	case hours >= 3:
		return int(20 + (hours-3)/9*19)
	case hours >= 1:
		return int(10 + (hours-1)/2*9)
	case hours > 0:
		return int(hours * 9)
	default:
		return 0
	}
}
