package queue

import (
	"context"
	"fmt"
	"log/slog"
)

// ProjectChecker verifies the referential precondition for a task enqueue.
// This is the only synchronous check performed before a message is queued;
// it exists to avoid queuing requests that can never succeed.
type ProjectChecker interface {
	ProjectExists(ctx context.Context, projectID int64) (bool, error)
}

// Enqueuer is the queue surface the producer needs.
type Enqueuer interface {
	Push(ctx context.Context, msg *Message) error
	Size(ctx context.Context) (int64, error)
}

// StatusWriter writes the initial status record for a job.
type StatusWriter interface {
	CreatePending(ctx context.Context, jobID, message string) error
}

// Producer turns a validated task-creation request into a queued unit of
// work. It runs synchronously on the request path, so it performs only the
// project pre-check and the two quick queue-store writes.
type Producer struct {
	queue    Enqueuer
	statuses StatusWriter
	projects ProjectChecker
	logger   *slog.Logger
}

// EnqueueResult is returned to the caller after a successful enqueue.
type EnqueueResult struct {
	JobID         string
	Status        string
	Message       string
	QueuePosition int64
}

// NewProducer creates a producer.
func NewProducer(q Enqueuer, statuses StatusWriter, projects ProjectChecker, logger *slog.Logger) *Producer {
	return &Producer{
		queue:    q,
		statuses: statuses,
		projects: projects,
		logger:   logger,
	}
}

// EnqueueCreateTask validates the project reference, writes the pending
// status record, pushes the message and returns the job id plus an
// approximate queue position. The status record is written before the id is
// returned, so a status poll immediately afterwards always sees "pending".
func (p *Producer) EnqueueCreateTask(ctx context.Context, payload *CreateTaskPayload) (*EnqueueResult, error) {
	exists, err := p.projects.ProjectExists(ctx, payload.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: project %d", ErrProjectNotFound, payload.ProjectID)
	}

	msg, err := NewCreateTaskMessage(payload)
	if err != nil {
		return nil, err
	}

	if err := p.statuses.CreatePending(ctx, msg.JobID, "Request queued, awaiting processing"); err != nil {
		p.logger.Error("Failed to write initial job status",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	if err := p.queue.Push(ctx, msg); err != nil {
		// The status record now dead-ends at pending until its TTL expires.
		// Accepted degraded outcome, but worth a trace.
		p.logger.Error("Push failed after status write, record will expire at pending",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
		return nil, err
	}

	position, err := p.queue.Size(ctx)
	if err != nil {
		// Depth is best-effort observability, not worth failing the enqueue.
		p.logger.Debug("Failed to read queue depth",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
		position = 0
	}

	p.logger.Info("Task creation enqueued",
		slog.String("job_id", msg.JobID),
		slog.Int64("project_id", payload.ProjectID),
		slog.Int64("queue_position", position),
	)

	return &EnqueueResult{
		JobID:         msg.JobID,
		Status:        StatusPending,
		Message:       fmt.Sprintf("Task creation queued. Poll GET /api/v1/tasks/jobs/%s for status.", msg.JobID),
		QueuePosition: position,
	}, nil
}
