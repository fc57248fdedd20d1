package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/taskflow-be/internal/queue"
	"github.com/jmoiron/sqlx"
)

// Task is the materialized row created by a completed job. It doubles as the
// job result record.
type Task struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      string     `db:"status" json:"status"`
	Priority    string     `db:"priority" json:"priority"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	ProjectID   int64      `db:"project_id" json:"project_id"`
	AssigneeID  *int64     `db:"assignee_id" json:"assignee_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Storage handles the worker's database writes
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// CreateTask inserts a task inside a transaction and returns the created row.
// The transaction is exclusive to this write; no connection is held across
// queue pops.
func (s *Storage) CreateTask(ctx context.Context, payload *queue.CreateTaskPayload) (*Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tasks (title, description, status, priority, due_date, project_id, assignee_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	var description *string
	if payload.Description != "" {
		description = &payload.Description
	}

	task := Task{
		Title:       payload.Title,
		Description: description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
		ProjectID:   payload.ProjectID,
		AssigneeID:  payload.AssigneeID,
	}

	err = tx.QueryRowxContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.ProjectID,
		task.AssigneeID,
	).Scan(&task.ID, &task.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Task created",
		slog.Int64("task_id", task.ID),
		slog.Int64("project_id", task.ProjectID),
	)

	return &task, nil
}
