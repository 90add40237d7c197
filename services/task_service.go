package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskMateAPI/internal/apperr"
	"taskMateAPI/internal/task"
)

// TaskService is a thin CRUD layer over the tasks table. Every operation is
// scoped to the owner; no cross-task invariants exist.
type TaskService struct {
	db *pgxpool.Pool
}

func NewTaskService(db *pgxpool.Pool) *TaskService {
	return &TaskService{db: db}
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, title string) (*task.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("task title is required: %w", apperr.ErrValidation)
	}

	t := &task.Task{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO tasks (id, owner_id, title, is_done, created_at)
	VALUES ($1, $2, $3, false, $4)
	`

	if _, err := s.db.Exec(ctx, query, t.ID, t.OwnerID, t.Title, t.CreatedAt); err != nil {
		log.Printf("CreateTask: Failed to insert task: %v", err)
		return nil, fmt.Errorf("failed to create task: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	return t, nil
}

func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	query := `
	SELECT id, owner_id, title, is_done, created_at
	FROM tasks
	WHERE owner_id = $1
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %v: %w", err, apperr.ErrRemoteUnavailable)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.IsDone, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %v: %w", err, apperr.ErrRemoteUnavailable)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	return tasks, nil
}

func (s *TaskService) Toggle(ctx context.Context, ownerID, taskID uuid.UUID) (*task.Task, error) {
	query := `
	UPDATE tasks
	SET is_done = NOT is_done
	WHERE id = $1 AND owner_id = $2
	RETURNING id, owner_id, title, is_done, created_at
	`

	t := &task.Task{}
	err := s.db.QueryRow(ctx, query, taskID, ownerID).Scan(&t.ID, &t.OwnerID, &t.Title, &t.IsDone, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("task not found: %w", apperr.ErrNotFound)
		}
		log.Printf("ToggleTask: Failed to update task %s: %v", taskID, err)
		return nil, fmt.Errorf("failed to toggle task: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	return t, nil
}

func (s *TaskService) Edit(ctx context.Context, ownerID, taskID uuid.UUID, newTitle string) (*task.Task, error) {
	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" {
		return nil, fmt.Errorf("task title is required: %w", apperr.ErrValidation)
	}

	query := `
	UPDATE tasks
	SET title = $3
	WHERE id = $1 AND owner_id = $2
	RETURNING id, owner_id, title, is_done, created_at
	`

	t := &task.Task{}
	err := s.db.QueryRow(ctx, query, taskID, ownerID, newTitle).Scan(&t.ID, &t.OwnerID, &t.Title, &t.IsDone, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("task not found: %w", apperr.ErrNotFound)
		}
		log.Printf("EditTask: Failed to update task %s: %v", taskID, err)
		return nil, fmt.Errorf("failed to edit task: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`

	result, err := s.db.Exec(ctx, query, taskID, ownerID)
	if err != nil {
		log.Printf("DeleteTask: Failed to delete task %s: %v", taskID, err)
		return fmt.Errorf("failed to delete task: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("task not found: %w", apperr.ErrNotFound)
	}

	return nil
}
