// Package app implements the task use cases on top of the repository and
// settings ports.
package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/logging"
	"taskhub/internal/task/domain"
	"taskhub/internal/task/ports"
)

// Service coordinates task operations: CRUD, patching, subtask upkeep,
// duplication and the status bookkeeping that goes with all of them.
type Service struct {
	repo       ports.TaskRepository
	settings   ports.SettingsProvider
	resolution *ResolutionHandler
	logger     logging.Logger
	now        func() time.Time
}

// NewService wires a task service. The resolution handler for duplicate
// progress is created here so there is exactly one consumer for those events.
func NewService(repo ports.TaskRepository, settings ports.SettingsProvider, logger logging.Logger) *Service {
	s := &Service{
		repo:     repo,
		settings: settings,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
	s.resolution = newResolutionHandler(repo, s.logger)
	return s
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	s.resolution.now = now
	return s
}

// Repository exposes the backing store so sibling components (the
// notification dispatcher) can share it.
func (s *Service) Repository() ports.TaskRepository {
	return s.repo
}

// Settings exposes the settings provider for the same reason.
func (s *Service) Settings() ports.SettingsProvider {
	return s.settings
}

// CreateInput carries the fields a client may set when creating a task.
// StartAt and EndAt are RFC 3339 strings. A nil LockedAfterDue falls back to
// the owner's default preference.
type CreateInput struct {
	Title          string
	Description    string
	Notes          string
	Category       string
	Tags           []string
	Priority       domain.Priority
	DueDate        *string
	DueTime        *string
	StartAt        *string
	EndAt          *string
	LockedAfterDue *bool
	NotifyOnStart  bool
	Subtasks       []SubtaskInput
}

// SubtaskInput is one checklist entry in a create or replace request. An
// empty ID means a new subtask.
type SubtaskInput struct {
	ID        string
	Title     string
	Completed bool
}

// Create validates the input and stores a new task. The initial status is
// derived from the due instant so a task created with a past deadline starts
// out overdue rather than pending.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Task{}, domain.Validationf("title is required")
	}
	if err := domain.ValidateDueFields(in.DueDate, in.DueTime); err != nil {
		return domain.Task{}, err
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.IsValid() {
		return domain.Task{}, domain.Validationf("unknown priority %q", in.Priority)
	}

	settings := s.settings.OwnerSettings(ctx, ownerID)
	now := s.now()
	task := domain.Task{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Title:         title,
		Description:   in.Description,
		Notes:         in.Notes,
		Category:      in.Category,
		Tags:          append([]string(nil), in.Tags...),
		Priority:      priority,
		DueDate:       in.DueDate,
		DueTime:       in.DueTime,
		Status:        domain.StatusPending,
		NotifyOnStart: in.NotifyOnStart,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.LockedAfterDue != nil {
		task.LockedAfterDue = *in.LockedAfterDue
	} else {
		task.LockedAfterDue = settings.DefaultLockAfterDue
	}
	var err error
	if task, err = (domain.Patch{StartAt: in.StartAt, EndAt: in.EndAt}).Apply(task); err != nil {
		return domain.Task{}, err
	}
	for _, sub := range in.Subtasks {
		subTitle := strings.TrimSpace(sub.Title)
		if subTitle == "" {
			return domain.Task{}, domain.Validationf("subtask title is required")
		}
		task.Subtasks = append(task.Subtasks, domain.Subtask{
			ID:        uuid.NewString(),
			TaskID:    task.ID,
			Title:     subTitle,
			Completed: sub.Completed,
		})
	}
	task = domain.ReconcileDue(task, now, settings.Location)
	task.DueAt = task.DueInstant(settings.Location)

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return domain.Task{}, err
	}
	s.logger.Info("task created: id=%s owner=%s status=%s", created.ID, ownerID, created.Status)
	return created, nil
}

// Get returns a single task owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (domain.Task, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns the owner's tasks, optionally filtered.
func (s *Service) List(ctx context.Context, ownerID string, filter ports.ListFilter) ([]domain.Task, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.Validationf("unknown status %q", filter.Status)
	}
	return s.repo.List(ctx, ownerID, filter)
}

// Patch applies a partial update. The lock policy runs first, then the field
// changes, then the status machinery: an explicit status goes through the
// transition rules, and a due edit without one re-derives pending/overdue.
func (s *Service) Patch(ctx context.Context, ownerID, id string, p domain.Patch) (domain.Task, error) {
	if err := s.validatePatch(p); err != nil {
		return domain.Task{}, err
	}
	task, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := domain.AssertEditable(task, p); err != nil {
		return domain.Task{}, err
	}
	expected := task.UpdatedAt
	if task, err = p.Apply(task); err != nil {
		return domain.Task{}, err
	}

	settings := s.settings.OwnerSettings(ctx, ownerID)
	now := s.now()
	if p.Status != nil {
		task = domain.ApplyStatusChange(task, *p.Status, now, settings.Location)
	}
	// The due-edit auto-transition runs unless the same request explicitly
	// completes the task; explicit completion wins.
	if p.ChangesDue() && (p.Status == nil || *p.Status != domain.StatusCompleted) {
		task = domain.ReconcileDue(task, now, settings.Location)
	}
	task.DueAt = task.DueInstant(settings.Location)
	task.UpdatedAt = now

	updated, err := s.repo.Update(ctx, task, expected)
	if err != nil {
		return domain.Task{}, err
	}
	s.logger.Info("task updated: id=%s owner=%s status=%s", id, ownerID, updated.Status)
	return updated, nil
}

// Delete removes a task and its subtasks.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info("task deleted: id=%s owner=%s", id, ownerID)
	return nil
}

// ReplaceSubtasks swaps the task's checklist for the given one. Entries with
// an ID keep it, new entries get one. Checking off a subtask on a duplicated
// task reports progress back to the original, and completing the last
// subtask completes the task itself.
func (s *Service) ReplaceSubtasks(ctx context.Context, ownerID, taskID string, inputs []SubtaskInput) (domain.Task, error) {
	task, err := s.repo.Get(ctx, ownerID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.IsLocked() {
		return domain.Task{}, domain.ErrLocked
	}

	wasCompleted := make(map[string]bool, len(task.Subtasks))
	for _, sub := range task.Subtasks {
		wasCompleted[sub.ID] = sub.Completed
	}

	subtasks := make([]domain.Subtask, 0, len(inputs))
	var newlyCompleted []string
	for _, in := range inputs {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return domain.Task{}, domain.Validationf("subtask title is required")
		}
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		if in.Completed && !wasCompleted[id] {
			newlyCompleted = append(newlyCompleted, id)
		}
		subtasks = append(subtasks, domain.Subtask{
			ID:        id,
			TaskID:    taskID,
			Title:     title,
			Completed: in.Completed,
		})
	}

	updated, err := s.repo.ReplaceSubtasks(ctx, ownerID, taskID, subtasks)
	if err != nil {
		return domain.Task{}, err
	}
	return s.afterSubtaskProgress(ctx, ownerID, updated, newlyCompleted)
}

// SetSubtaskCompleted toggles a single subtask, with the same side effects
// as ReplaceSubtasks.
func (s *Service) SetSubtaskCompleted(ctx context.Context, ownerID, taskID, subtaskID string, completed bool) (domain.Task, error) {
	task, err := s.repo.Get(ctx, ownerID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.IsLocked() {
		return domain.Task{}, domain.ErrLocked
	}

	var newlyCompleted []string
	found := false
	subtasks := append([]domain.Subtask(nil), task.Subtasks...)
	for i, sub := range subtasks {
		if sub.ID != subtaskID {
			continue
		}
		found = true
		if completed && !sub.Completed {
			newlyCompleted = append(newlyCompleted, sub.ID)
		}
		subtasks[i].Completed = completed
	}
	if !found {
		return domain.Task{}, domain.ErrNotFound
	}

	updated, err := s.repo.ReplaceSubtasks(ctx, ownerID, taskID, subtasks)
	if err != nil {
		return domain.Task{}, err
	}
	return s.afterSubtaskProgress(ctx, ownerID, updated, newlyCompleted)
}

func (s *Service) afterSubtaskProgress(ctx context.Context, ownerID string, task domain.Task, newlyCompleted []string) (domain.Task, error) {
	if task.DuplicatedFromID != nil {
		now := s.now()
		for _, subtaskID := range newlyCompleted {
			s.resolution.Handle(ctx, domain.SubtaskCompletedOnDuplicate{
				DuplicateTaskID: task.ID,
				OriginalTaskID:  *task.DuplicatedFromID,
				OwnerID:         ownerID,
				SubtaskID:       subtaskID,
				OccurredAt:      now,
			})
		}
	}

	if task.AllSubtasksCompleted() && task.Status != domain.StatusCompleted {
		settings := s.settings.OwnerSettings(ctx, ownerID)
		expected := task.UpdatedAt
		now := s.now()
		task = domain.ApplyStatusChange(task, domain.StatusCompleted, now, settings.Location)
		task.UpdatedAt = now
		completed, err := s.repo.Update(ctx, task, expected)
		if err != nil {
			return domain.Task{}, err
		}
		s.logger.Info("task auto-completed by subtasks: id=%s owner=%s", task.ID, ownerID)
		return completed, nil
	}
	return task, nil
}

// Duplicate clones a task as a fresh pending item carrying only the
// unfinished subtasks, linked back to the source so progress on the copy
// can resolve it.
func (s *Service) Duplicate(ctx context.Context, ownerID, id string) (domain.Task, error) {
	source, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return domain.Task{}, err
	}

	settings := s.settings.OwnerSettings(ctx, ownerID)
	now := s.now()
	sourceID := source.ID
	copyTask := source.Clone()
	copyTask.ID = uuid.NewString()
	copyTask.Status = domain.StatusPending
	copyTask.CompletedAt = nil
	copyTask.OverdueAt = nil
	copyTask.NotificationsMuted = false
	copyTask.SnoozedUntil = nil
	copyTask.PartiallyResolved = false
	copyTask.DuplicatedFromID = &sourceID
	copyTask.CreatedAt = now
	copyTask.UpdatedAt = now

	copyTask.Subtasks = nil
	for _, sub := range source.Subtasks {
		if sub.Completed {
			continue
		}
		copyTask.Subtasks = append(copyTask.Subtasks, domain.Subtask{
			ID:     uuid.NewString(),
			TaskID: copyTask.ID,
			Title:  sub.Title,
		})
	}

	copyTask = domain.ReconcileDue(copyTask, now, settings.Location)
	copyTask.DueAt = copyTask.DueInstant(settings.Location)

	created, err := s.repo.Create(ctx, copyTask)
	if err != nil {
		return domain.Task{}, err
	}
	s.logger.Info("task duplicated: source=%s copy=%s owner=%s", sourceID, created.ID, ownerID)
	return created, nil
}

// Snooze silences notifications for the task until the given instant. A nil
// until clears the snooze.
func (s *Service) Snooze(ctx context.Context, ownerID, id string, until *time.Time) (domain.Task, error) {
	task, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return domain.Task{}, err
	}
	now := s.now()
	if until != nil && !until.After(now) {
		return domain.Task{}, domain.Validationf("snooze_until must be in the future")
	}
	expected := task.UpdatedAt
	task.SnoozedUntil = until
	task.UpdatedAt = now
	return s.repo.Update(ctx, task, expected)
}

// SetMuted flips notification muting for the task.
func (s *Service) SetMuted(ctx context.Context, ownerID, id string, muted bool) (domain.Task, error) {
	task, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return domain.Task{}, err
	}
	expected := task.UpdatedAt
	task.NotificationsMuted = muted
	task.UpdatedAt = s.now()
	return s.repo.Update(ctx, task, expected)
}

// Health classifies a single task at the current instant.
func (s *Service) Health(ctx context.Context, ownerID, id string) (domain.Task, domain.Health, error) {
	task, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return domain.Task{}, domain.Health{}, err
	}
	settings := s.settings.OwnerSettings(ctx, ownerID)
	return task, domain.Classify(task, s.now(), settings.Location), nil
}

// SweepOverdue flips every pending task whose deadline has passed to
// overdue. It is safe to run repeatedly; already-overdue tasks are skipped
// and their overdue_at stands.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.repo.ListDueBefore(ctx, now)
	if err != nil {
		return 0, err
	}
	transitioned := 0
	for _, task := range due {
		settings := s.settings.OwnerSettings(ctx, task.OwnerID)
		next, changed := domain.MarkOverdueIfDue(task, now, settings.Location)
		if !changed {
			continue
		}
		expected := next.UpdatedAt
		next.UpdatedAt = now
		if _, err := s.repo.Update(ctx, next, expected); err != nil {
			// Lost the race to a concurrent edit; the next sweep
			// will pick the task up again if it is still due.
			s.logger.Warn("sweep skipped task %s: %v", task.ID, err)
			continue
		}
		transitioned++
	}
	if transitioned > 0 {
		s.logger.Info("overdue sweep transitioned %d task(s)", transitioned)
	}
	return transitioned, nil
}

func (s *Service) validatePatch(p domain.Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return domain.Validationf("title cannot be empty")
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return domain.Validationf("unknown priority %q", *p.Priority)
	}
	if p.Status != nil && !p.Status.IsValid() {
		return domain.Validationf("unknown status %q", *p.Status)
	}
	dueDate, dueTime := p.DueDate, p.DueTime
	if dueDate != nil && *dueDate == "" {
		dueDate = nil
		dueTime = nil
	}
	if dueTime != nil && *dueTime == "" {
		dueTime = nil
	}
	if dueDate != nil || dueTime != nil {
		// A patched due_time may rely on an already-stored due_date,
		// so only check formats here.
		if dueDate != nil {
			if _, err := time.Parse(domain.DueDateLayout, *dueDate); err != nil {
				return domain.Validationf("due_date must be formatted as %s", domain.DueDateLayout)
			}
		}
		if dueTime != nil {
			if _, err := time.Parse(domain.DueTimeLayout, *dueTime); err != nil {
				return domain.Validationf("due_time must be formatted as %s", domain.DueTimeLayout)
			}
		}
	}
	return nil
}
