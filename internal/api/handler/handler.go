package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/taskflow-be/internal/queue"
)

// TaskEnqueuer is the producer surface the enqueue endpoint uses.
type TaskEnqueuer interface {
	EnqueueCreateTask(ctx context.Context, payload *queue.CreateTaskPayload) (*queue.EnqueueResult, error)
}

// StatusReader is the read-only status/result surface.
type StatusReader interface {
	Get(ctx context.Context, jobID string) (*queue.JobStatus, error)
	GetResult(ctx context.Context, jobID string, dest any) error
}

// QueueObserver exposes queue depth for the stats endpoint.
type QueueObserver interface {
	Stats(ctx context.Context) *queue.Stats
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Producer TaskEnqueuer
	Statuses StatusReader
	Queue    QueueObserver
}

// TaskHandler handles task-job HTTP requests
type TaskHandler struct {
	logger   *slog.Logger
	producer TaskEnqueuer
	statuses StatusReader
	queue    QueueObserver
}

// NewTaskHandler creates a new TaskHandler instance
func NewTaskHandler(deps *Dependencies) *TaskHandler {
	return &TaskHandler{
		logger:   deps.Logger,
		producer: deps.Producer,
		statuses: deps.Statuses,
		queue:    deps.Queue,
	}
}
