package app

import (
	"context"
	"time"

	"taskhub/internal/logging"
	"taskhub/internal/task/domain"
	"taskhub/internal/task/ports"
)

// ResolutionHandler is the single consumer of SubtaskCompletedOnDuplicate
// events. It mutes the original task and flags it partially resolved, once;
// later events for the same original are no-ops.
type ResolutionHandler struct {
	repo   ports.TaskRepository
	logger logging.Logger
	now    func() time.Time
}

func newResolutionHandler(repo ports.TaskRepository, logger logging.Logger) *ResolutionHandler {
	return &ResolutionHandler{repo: repo, logger: logging.OrNop(logger), now: time.Now}
}

// Handle applies the event. Failures are logged, not propagated; the
// subtask edit that produced the event has already committed.
func (h *ResolutionHandler) Handle(ctx context.Context, ev domain.SubtaskCompletedOnDuplicate) {
	original, err := h.repo.Get(ctx, ev.OwnerID, ev.OriginalTaskID)
	if err != nil {
		h.logger.Warn("duplicate progress: original task %s not loadable: %v", ev.OriginalTaskID, err)
		return
	}
	if original.NotificationsMuted && original.PartiallyResolved {
		return
	}
	expected := original.UpdatedAt
	original.NotificationsMuted = true
	original.PartiallyResolved = true
	original.UpdatedAt = h.now()
	if _, err := h.repo.Update(ctx, original, expected); err != nil {
		h.logger.Warn("duplicate progress: could not mark original %s: %v", ev.OriginalTaskID, err)
		return
	}
	h.logger.Info("original task %s muted after progress on duplicate %s", ev.OriginalTaskID, ev.DuplicateTaskID)
}
