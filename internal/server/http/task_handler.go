package http

import (
	"net/http"
	"strings"
	"time"

	"taskhub/internal/logging"
	taskapp "taskhub/internal/task/app"
	taskdomain "taskhub/internal/task/domain"
	taskports "taskhub/internal/task/ports"
)

// TaskHandler manages the task endpoints.
type TaskHandler struct {
	service *taskapp.Service
	logger  logging.Logger
}

// NewTaskHandler builds a task handler.
func NewTaskHandler(service *taskapp.Service) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logging.NewComponentLogger("TaskHandler"),
	}
}

type subtaskDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type taskDTO struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Priority    string   `json:"priority"`

	DueDate *string    `json:"due_date,omitempty"`
	DueTime *string    `json:"due_time,omitempty"`
	DueAt   *time.Time `json:"due_at,omitempty"`
	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OverdueAt   *time.Time `json:"overdue_at,omitempty"`

	LockedAfterDue     bool       `json:"locked_after_due"`
	Locked             bool       `json:"locked"`
	NotificationsMuted bool       `json:"notifications_muted"`
	SnoozedUntil       *time.Time `json:"snoozed_until,omitempty"`
	PartiallyResolved  bool       `json:"partially_resolved"`
	NotifyOnStart      bool       `json:"notify_on_start"`

	DuplicatedFromID *string `json:"duplicated_from_task_id,omitempty"`

	Subtasks []subtaskDTO `json:"subtasks"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createTaskRequest struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Notes          string            `json:"notes"`
	Category       string            `json:"category"`
	Tags           []string          `json:"tags"`
	Priority       string            `json:"priority"`
	DueDate        *string           `json:"due_date"`
	DueTime        *string           `json:"due_time"`
	StartAt        *string           `json:"start_at"`
	EndAt          *string           `json:"end_at"`
	LockedAfterDue *bool             `json:"locked_after_due"`
	NotifyOnStart  bool              `json:"notify_on_start"`
	Subtasks       []subtaskRequest  `json:"subtasks"`
}

type subtaskRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type patchTaskRequest struct {
	Title              *string   `json:"title"`
	Description        *string   `json:"description"`
	Notes              *string   `json:"notes"`
	Category           *string   `json:"category"`
	Tags               *[]string `json:"tags"`
	Priority           *string   `json:"priority"`
	DueDate            *string   `json:"due_date"`
	DueTime            *string   `json:"due_time"`
	StartAt            *string   `json:"start_at"`
	EndAt              *string   `json:"end_at"`
	Status             *string   `json:"status"`
	LockedAfterDue     *bool     `json:"locked_after_due"`
	NotificationsMuted *bool     `json:"notifications_muted"`
	NotifyOnStart      *bool     `json:"notify_on_start"`
}

type replaceSubtasksRequest struct {
	Subtasks []subtaskRequest `json:"subtasks"`
}

type setSubtaskRequest struct {
	Completed bool `json:"completed"`
}

type snoozeRequest struct {
	Until *time.Time `json:"until"`
}

type muteRequest struct {
	Muted bool `json:"muted"`
}

type healthResponse struct {
	TaskID           string `json:"task_id"`
	Level            string `json:"level"`
	Message          string `json:"message"`
	ShouldNotify     bool   `json:"should_notify"`
	Score            int    `json:"score"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

// HandleCollection processes GET and POST /api/tasks.
func (h *TaskHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodGet:
		filter := taskports.ListFilter{
			Status:   taskdomain.Status(r.URL.Query().Get("status")),
			Category: r.URL.Query().Get("category"),
		}
		tasks, err := h.service.List(r.Context(), user.ID, filter)
		if err != nil {
			writeTaskError(w, err)
			return
		}
		out := make([]taskDTO, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, toTaskDTO(task))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req createTaskRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			writeBodyError(w, err)
			return
		}
		task, err := h.service.Create(r.Context(), user.ID, toCreateInput(req))
		if err != nil {
			writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTaskDTO(task))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleItem routes /api/tasks/{id} and its sub-resources.
func (h *TaskHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "task id required", http.StatusBadRequest)
		return
	}
	taskID := parts[0]

	switch {
	case len(parts) == 1:
		h.handleTask(w, r, user.ID, taskID)
	case len(parts) == 2 && parts[1] == "subtasks":
		h.handleReplaceSubtasks(w, r, user.ID, taskID)
	case len(parts) == 3 && parts[1] == "subtasks":
		h.handleSetSubtask(w, r, user.ID, taskID, parts[2])
	case len(parts) == 2 && parts[1] == "duplicate":
		h.handleDuplicate(w, r, user.ID, taskID)
	case len(parts) == 2 && parts[1] == "snooze":
		h.handleSnooze(w, r, user.ID, taskID)
	case len(parts) == 2 && parts[1] == "mute":
		h.handleMute(w, r, user.ID, taskID)
	case len(parts) == 2 && parts[1] == "health":
		h.handleHealth(w, r, user.ID, taskID)
	default:
		http.NotFound(w, r)
	}
}

func (h *TaskHandler) handleTask(w http.ResponseWriter, r *http.Request, ownerID, taskID string) {
	switch r.Method {
	case http.MethodGet:
		task, err := h.service.Get(r.Context(), ownerID, taskID)
		if err != nil {
			writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTaskDTO(task))
	case http.MethodPatch, http.MethodPut:
		var req patchTaskRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			writeBodyError(w, err)
			return
		}
		task, err := h.service.Patch(r.Context(), ownerID, taskID, toPatch(req))
		if err != nil {
			writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTaskDTO(task))
	case http.MethodDelete:
		if err := h.service.Delete(r.Context(), ownerID, taskID); err != nil {
			writeTaskError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TaskHandler) handleReplaceSubtasks(w http.ResponseWriter, r *http.Request, ownerID, taskID string) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req replaceSubtasksRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	inputs := make([]taskapp.SubtaskInput, 0, len(req.Subtasks))
	for _, sub := range req.Subtasks {
		inputs = append(inputs, taskapp.SubtaskInput{ID: sub.ID, Title: sub.Title, Completed: sub.Completed})
	}
	task, err := h.service.ReplaceSubtasks(r.Context(), ownerID, taskID, inputs)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (h *TaskHandler) handleSetSubtask(w http.ResponseWriter, r *http.Request, ownerID, taskID, subtaskID string) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req setSubtaskRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	task, err := h.service.SetSubtaskCompleted(r.Context(), ownerID, taskID, subtaskID, req.Completed)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (h *TaskHandler) handleDuplicate(w http.ResponseWriter, r *http.Request, ownerID, taskID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	task, err := h.service.Duplicate(r.Context(), ownerID, taskID)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(task))
}

func (h *TaskHandler) handleSnooze(w http.ResponseWriter, r *http.Request, ownerID, taskID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req snoozeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	task, err := h.service.Snooze(r.Context(), ownerID, taskID, req.Until)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (h *TaskHandler) handleMute(w http.ResponseWriter, r *http.Request, ownerID, taskID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req muteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	task, err := h.service.SetMuted(r.Context(), ownerID, taskID, req.Muted)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (h *TaskHandler) handleHealth(w http.ResponseWriter, r *http.Request, ownerID, taskID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	task, health, err := h.service.Health(r.Context(), ownerID, taskID)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		TaskID:           task.ID,
		Level:            string(health.Level),
		Message:          health.Message,
		ShouldNotify:     health.ShouldNotify,
		Score:            health.Score,
		RemainingSeconds: int64(health.TimeRemaining.Seconds()),
	})
}

func toCreateInput(req createTaskRequest) taskapp.CreateInput {
	in := taskapp.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Notes:          req.Notes,
		Category:       req.Category,
		Tags:           req.Tags,
		Priority:       taskdomain.Priority(req.Priority),
		DueDate:        req.DueDate,
		DueTime:        req.DueTime,
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
		LockedAfterDue: req.LockedAfterDue,
		NotifyOnStart:  req.NotifyOnStart,
	}
	for _, sub := range req.Subtasks {
		in.Subtasks = append(in.Subtasks, taskapp.SubtaskInput{ID: sub.ID, Title: sub.Title, Completed: sub.Completed})
	}
	return in
}

func toPatch(req patchTaskRequest) taskdomain.Patch {
	patch := taskdomain.Patch{
		Title:              req.Title,
		Description:        req.Description,
		Notes:              req.Notes,
		Category:           req.Category,
		Tags:               req.Tags,
		DueDate:            req.DueDate,
		DueTime:            req.DueTime,
		StartAt:            req.StartAt,
		EndAt:              req.EndAt,
		LockedAfterDue:     req.LockedAfterDue,
		NotificationsMuted: req.NotificationsMuted,
		NotifyOnStart:      req.NotifyOnStart,
	}
	if req.Priority != nil {
		priority := taskdomain.Priority(*req.Priority)
		patch.Priority = &priority
	}
	if req.Status != nil {
		status := taskdomain.Status(*req.Status)
		patch.Status = &status
	}
	return patch
}

func toTaskDTO(task taskdomain.Task) taskDTO {
	subtasks := make([]subtaskDTO, 0, len(task.Subtasks))
	for _, sub := range task.Subtasks {
		subtasks = append(subtasks, subtaskDTO{ID: sub.ID, Title: sub.Title, Completed: sub.Completed})
	}
	return taskDTO{
		ID:                 task.ID,
		Title:              task.Title,
		Description:        task.Description,
		Notes:              task.Notes,
		Category:           task.Category,
		Tags:               task.Tags,
		Priority:           string(task.Priority),
		DueDate:            task.DueDate,
		DueTime:            task.DueTime,
		DueAt:              task.DueAt,
		StartAt:            task.StartAt,
		EndAt:              task.EndAt,
		Status:             string(task.Status),
		CompletedAt:        task.CompletedAt,
		OverdueAt:          task.OverdueAt,
		LockedAfterDue:     task.LockedAfterDue,
		Locked:             task.IsLocked(),
		NotificationsMuted: task.NotificationsMuted,
		SnoozedUntil:       task.SnoozedUntil,
		PartiallyResolved:  task.PartiallyResolved,
		NotifyOnStart:      task.NotifyOnStart,
		DuplicatedFromID:   task.DuplicatedFromID,
		Subtasks:           subtasks,
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}
}
