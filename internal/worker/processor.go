package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/taskflow-be/internal/queue"
)

// process handles a single popped message. Nothing here ever propagates out
// to kill the loop: every failure is classified into a requeue or a terminal
// status write.
func (w *Worker) process(ctx context.Context, msg *queue.Message) {
	// Detached from the pop context: a shutdown signal arriving mid-flight
	// must not abandon the domain write, the requeue or the status writes of
	// a message that has already been popped. The loop exits at the next pop
	// boundary instead.
	ctx = context.WithoutCancel(ctx)

	log := w.logger.With(
		slog.String("job_id", msg.JobID),
		slog.String("type", msg.Type),
		slog.Int("retry_count", msg.RetryCount),
	)
	log.Info("Message received")

	if err := w.statuses.Update(ctx, msg.JobID, queue.StatusProcessing, "Creating task...", ""); err != nil {
		// The status store itself is unreachable. Pause briefly and press on;
		// the domain write does not depend on the status record.
		log.Error("Failed to mark job processing", slog.Any("error", err))
		time.Sleep(time.Second)
	}

	var err error
	switch msg.Type {
	case queue.JobTypeCreateTask:
		err = w.processCreateTask(ctx, msg)
	default:
		// Not a transient condition; retrying will not help.
		log.Warn("Dropping message with unknown type")
		err = fmt.Errorf("%w: %s", queue.ErrUnknownJobType, msg.Type)
	}

	if err != nil {
		w.failed.Add(1)
		log.Error("Message processing failed", slog.Any("error", err))
		w.handleFailure(ctx, msg, err)
		return
	}

	w.processed.Add(1)
	log.Info("Message processed")
}

// processCreateTask performs the durable write for a create-task message and
// records the outcome. Store errors are wrapped as retryable; payload errors
// are permanent.
func (w *Worker) processCreateTask(ctx context.Context, msg *queue.Message) error {
	payload, err := msg.CreateTaskPayload()
	if err != nil {
		return err
	}

	task, err := w.tasks.CreateTask(ctx, payload)
	if err != nil {
		return queue.NewRetryableError(fmt.Errorf("task insert failed: %w", err))
	}

	// Coordination point with the read-through cache: an explicit call, list
	// entries for the task collection are stale after the insert.
	if err := w.cache.InvalidateTaskLists(ctx); err != nil {
		w.logger.Warn("Failed to invalidate task list cache",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
	}

	statusMsg := fmt.Sprintf("Task %q created", task.Title)
	if err := w.statuses.Update(ctx, msg.JobID, queue.StatusCompleted, statusMsg, ""); err != nil {
		w.logger.Error("Failed to mark job completed",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
	}

	if err := w.statuses.SaveResult(ctx, msg.JobID, task); err != nil {
		w.logger.Error("Failed to save job result",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
	}

	return nil
}

// isRetryable reports whether an error should re-enter the queue.
func isRetryable(err error) bool {
	var rerr *queue.RetryableError
	return errors.As(err, &rerr)
}
