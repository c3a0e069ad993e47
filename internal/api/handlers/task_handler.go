package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/taskify-app/taskify-be/internal/apperr"
	"github.com/taskify-app/taskify-be/internal/auth"
	"github.com/taskify-app/taskify-be/internal/services"
)

// TaskHandler handles HTTP requests for task management. All routes sit
// behind the auth gate, so the request identity is always present here.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskPayload defines the structure for task creation requests.
type CreateTaskPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTaskPayload defines the structure for task update requests. Absent
// fields are left unchanged.
type UpdateTaskPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// Create handles task creation for the calling user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateTaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.Validation("Invalid request body", nil))
		return
	}

	user := auth.UserFromContext(r.Context())
	task, err := h.service.Create(user.ID, payload.Title, payload.Description)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to create task")
		apperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// List returns the calling user's tasks ordered by creation time.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	tasks, err := h.service.List(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list tasks")
		apperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// Update applies a partial update to one of the calling user's tasks.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload UpdateTaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.Validation("Invalid request body", nil))
		return
	}

	user := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	task, err := h.service.Update(user.ID, id, services.TaskPatch{
		Title:       payload.Title,
		Description: payload.Description,
		Completed:   payload.Completed,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Str("task_id", id).Msg("Failed to update task")
		apperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Delete removes one of the calling user's tasks.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(user.ID, id); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Str("task_id", id).Msg("Failed to delete task")
		apperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
