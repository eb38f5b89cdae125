package domain

import "time"

// Patch carries a partial update for a task. Nil fields are untouched; for
// clearable string fields an empty string clears the value. StartAt and
// EndAt are RFC 3339 strings so an empty string can clear them too.
type Patch struct {
	Title       *string
	Description *string
	Notes       *string
	Category    *string
	Tags        *[]string
	Priority    *Priority

	DueDate *string
	DueTime *string
	StartAt *string
	EndAt   *string

	Status *Status

	LockedAfterDue     *bool
	NotificationsMuted *bool
	NotifyOnStart      *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Notes == nil &&
		p.Category == nil && p.Tags == nil && p.Priority == nil &&
		p.DueDate == nil && p.DueTime == nil && p.StartAt == nil && p.EndAt == nil &&
		p.Status == nil && p.LockedAfterDue == nil &&
		p.NotificationsMuted == nil && p.NotifyOnStart == nil
}

// OnlyCompletion reports whether the patch does nothing except mark the task
// completed. This is the single edit a locked task still accepts.
func (p Patch) OnlyCompletion() bool {
	if p.Status == nil || *p.Status != StatusCompleted {
		return false
	}
	rest := p
	rest.Status = nil
	return rest.IsEmpty()
}

// IsLocked reports whether the task is frozen by its lock-after-due flag.
func (t Task) IsLocked() bool {
	return t.LockedAfterDue && t.Status == StatusOverdue
}

// AssertEditable rejects a patch against a locked task unless the patch is a
// pure completion.
func AssertEditable(t Task, p Patch) error {
	if !t.IsLocked() {
		return nil
	}
	if p.OnlyCompletion() {
		return nil
	}
	return ErrLocked
}

// Apply copies the patch's set fields onto the task. Status is not applied
// here; the caller runs it through ApplyStatusChange so the timestamp
// invariants hold.
func (p Patch) Apply(t Task) (Task, error) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		if *p.DueDate == "" {
			t.DueDate = nil
			t.DueTime = nil
		} else {
			v := *p.DueDate
			t.DueDate = &v
		}
	}
	if p.DueTime != nil {
		if *p.DueTime == "" {
			t.DueTime = nil
		} else {
			v := *p.DueTime
			t.DueTime = &v
		}
	}
	// The merged fields must still form a valid deadline; a patch may not
	// leave a due time behind without a due date.
	if p.ChangesDue() {
		if err := ValidateDueFields(t.DueDate, t.DueTime); err != nil {
			return t, err
		}
	}
	if p.StartAt != nil {
		at, err := parseOptionalInstant(*p.StartAt, "start_at")
		if err != nil {
			return t, err
		}
		t.StartAt = at
	}
	if p.EndAt != nil {
		at, err := parseOptionalInstant(*p.EndAt, "end_at")
		if err != nil {
			return t, err
		}
		t.EndAt = at
	}
	if p.LockedAfterDue != nil {
		t.LockedAfterDue = *p.LockedAfterDue
	}
	if p.NotificationsMuted != nil {
		t.NotificationsMuted = *p.NotificationsMuted
	}
	if p.NotifyOnStart != nil {
		t.NotifyOnStart = *p.NotifyOnStart
	}
	return t, nil
}

// ChangesDue reports whether the patch touches either due field.
func (p Patch) ChangesDue() bool {
	return p.DueDate != nil || p.DueTime != nil
}

func parseOptionalInstant(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, Validationf("%s must be formatted as RFC 3339", field)
	}
	return &at, nil
}
