package services

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskify-app/taskify-be/internal/apperr"
	"github.com/taskify-app/taskify-be/internal/models"
	"github.com/taskify-app/taskify-be/internal/websocket"
)

// TaskPatch carries the optional fields of a task update. Nil means "leave
// unchanged".
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	Create(userID, title, description string) (models.Task, error)
	List(userID string) ([]models.Task, error)
	Update(userID, id string, patch TaskPatch) (models.Task, error)
	Delete(userID, id string) error
}

// TaskService provides owner-scoped CRUD over tasks. Every read and write is
// filtered by the owning user id; a caller can never observe or mutate another
// user's task.
type TaskService struct {
	db  *sql.DB
	hub *websocket.Hub
}

// NewTaskService creates a new TaskService. The hub may be nil, in which case
// no change events are published.
func NewTaskService(db *sql.DB, hub *websocket.Hub) *TaskService {
	return &TaskService{db: db, hub: hub}
}

// Create inserts a new task owned by the given user.
func (s *TaskService) Create(userID, title, description string) (models.Task, error) {
	if title == "" {
		return models.Task{}, apperr.Validation("Invalid task data", map[string]string{"title": "must not be empty"})
	}

	now := time.Now().UTC()
	task := models.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Completed:   false,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(
		"INSERT INTO tasks (id, title, description, completed, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		task.ID, task.Title, task.Description, task.Completed, task.UserID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, apperr.Persistence(err)
	}

	s.notify(userID, "task_created", task)
	return task, nil
}

// List returns all tasks owned by the user, ordered by creation time ascending.
func (s *TaskService) List(userID string) ([]models.Task, error) {
	rows, err := s.db.Query(
		"SELECT id, title, description, completed, user_id, created_at, updated_at FROM tasks WHERE user_id = ? ORDER BY created_at ASC",
		userID,
	)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Completed, &task.UserID, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, apperr.Persistence(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(err)
	}
	return tasks, nil
}

// Update applies the provided fields to a task owned by the user and refreshes
// its updated timestamp. A task that does not exist under the caller's
// ownership fails with a not-found error.
func (s *TaskService) Update(userID, id string, patch TaskPatch) (models.Task, error) {
	task, err := s.getOwned(userID, id)
	if err != nil {
		return models.Task{}, err
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return models.Task{}, apperr.Validation("Invalid task data", map[string]string{"title": "must not be empty"})
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		"UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		task.Title, task.Description, task.Completed, task.UpdatedAt, task.ID, userID,
	)
	if err != nil {
		return models.Task{}, apperr.Persistence(err)
	}

	s.notify(userID, "task_updated", task)
	return task, nil
}

// Delete removes a task owned by the user. Deleting an id that does not exist
// under the caller's ownership fails with a not-found error, matching Update.
func (s *TaskService) Delete(userID, id string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return apperr.Persistence(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence(err)
	}
	if affected == 0 {
		return apperr.NotFound("Task not found")
	}

	s.notify(userID, "task_deleted", map[string]string{"id": id})
	return nil
}

// getOwned loads a task by id scoped to its owner. Existence and ownership are
// checked in one filtered lookup.
func (s *TaskService) getOwned(userID, id string) (models.Task, error) {
	var task models.Task
	row := s.db.QueryRow(
		"SELECT id, title, description, completed, user_id, created_at, updated_at FROM tasks WHERE id = ? AND user_id = ?",
		id, userID,
	)
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Completed, &task.UserID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Task{}, apperr.NotFound("Task not found")
		}
		return models.Task{}, apperr.Persistence(err)
	}
	return task, nil
}

func (s *TaskService) notify(userID, action string, payload interface{}) {
	if s.hub == nil {
		return
	}
	message, err := json.Marshal(websocket.Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode task event")
		return
	}
	s.hub.NotifyUser(userID, message)
}
