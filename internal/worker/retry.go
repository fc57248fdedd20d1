package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/taskflow-be/internal/queue"
)

// handleFailure applies the bounded retry policy to a failed message.
//
// Retryable failures within budget are pushed back to the tail of the same
// queue with the retry counter bumped; a retried job may therefore be
// overtaken by later arrivals. The requeue is immediate with no backoff
// delay; the bounded pop timeout is what paces a sustained-outage loop.
// Everything else becomes a terminal failed status.
func (w *Worker) handleFailure(ctx context.Context, msg *queue.Message, procErr error) {
	log := w.logger.With(slog.String("job_id", msg.JobID))

	if !isRetryable(procErr) {
		w.markFailed(ctx, msg.JobID, "Task creation failed", procErr.Error())
		return
	}

	if msg.RetryCount >= w.maxRetries {
		log.Warn("Retry budget exhausted",
			slog.Int("retry_count", msg.RetryCount),
			slog.Int("max_retries", w.maxRetries),
		)
		detail := fmt.Sprintf("%s: %s", queue.ErrMaxRetriesExceeded, procErr.Error())
		w.markFailed(ctx, msg.JobID, fmt.Sprintf("Job failed after %d retries", w.maxRetries), detail)
		return
	}

	bumped := msg.Bump(time.Now().UTC())
	if err := w.queue.Push(ctx, bumped); err != nil {
		log.Error("Failed to requeue message", slog.Any("error", err))
		w.markFailed(ctx, msg.JobID, "Task creation failed", fmt.Sprintf("requeue failed: %s", err))
		return
	}

	log.Info("Message requeued for retry",
		slog.Int("retry_count", bumped.RetryCount),
		slog.Int("max_retries", w.maxRetries),
	)
}

func (w *Worker) markFailed(ctx context.Context, jobID, message, detail string) {
	if err := w.statuses.Update(ctx, jobID, queue.StatusFailed, message, detail); err != nil {
		w.logger.Error("Failed to mark job failed",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
	}
}
