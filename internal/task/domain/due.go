package domain

import "time"

const (
	// DueDateLayout is the calendar-date wire format for due dates.
	DueDateLayout = "2006-01-02"
	// DueTimeLayout is the time-of-day wire format for due times.
	DueTimeLayout = "15:04"
)

// ResolveDueInstant combines a calendar date and an optional time-of-day into
// a single instant in loc.
//
// A date without a time resolves to the very end of that day, so a task due
// "today" stays pending until the day rolls over. Unparseable inputs resolve
// to nil; format validation happens at the API boundary.
func ResolveDueInstant(dueDate, dueTime *string, loc *time.Location) *time.Time {
	if dueDate == nil || *dueDate == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DueDateLayout, *dueDate, loc)
	if err != nil {
		return nil
	}
	if dueTime != nil && *dueTime != "" {
		tod, err := time.Parse(DueTimeLayout, *dueTime)
		if err != nil {
			return nil
		}
		at := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, loc)
		return &at
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999_000_000, loc)
	return &at
}

// DueInstant resolves the task's own due fields in loc.
func (t Task) DueInstant(loc *time.Location) *time.Time {
	return ResolveDueInstant(t.DueDate, t.DueTime, loc)
}

// ValidateDueFields checks the wire formats of the due fields without
// resolving them. A due time without a due date is rejected.
func ValidateDueFields(dueDate, dueTime *string) error {
	if dueDate != nil && *dueDate != "" {
		if _, err := time.Parse(DueDateLayout, *dueDate); err != nil {
			return Validationf("due_date must be formatted as %s", DueDateLayout)
		}
	}
	if dueTime != nil && *dueTime != "" {
		if dueDate == nil || *dueDate == "" {
			return Validationf("due_time requires a due_date")
		}
		if _, err := time.Parse(DueTimeLayout, *dueTime); err != nil {
			return Validationf("due_time must be formatted as %s", DueTimeLayout)
		}
	}
	return nil
}
