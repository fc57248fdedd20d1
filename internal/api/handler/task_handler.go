package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/taskflow-be/internal/api/dto"
	"github.com/cuongbtq/taskflow-be/internal/queue"
	"github.com/cuongbtq/taskflow-be/internal/worker/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EnqueueTask handles POST /api/v1/tasks
// Pre-validates the project reference, enqueues the creation request and
// acknowledges immediately with 202. No domain write happens here.
func (h *TaskHandler) EnqueueTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if req.Status == "" {
		req.Status = "pending"
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}

	payload := &queue.CreateTaskPayload{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
	}

	result, err := h.producer.EnqueueCreateTask(c.Request.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, queue.ErrQueueUnavailable):
			h.logger.Error("Enqueue failed - backing store unavailable", slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Queue backing store unavailable, try again later",
			})
		default:
			h.logger.Error("Enqueue failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to enqueue task creation",
			})
		}
		return
	}

	c.JSON(http.StatusAccepted, dto.JobAcceptedResponse{
		JobID:         result.JobID,
		Status:        result.Status,
		Message:       result.Message,
		QueuePosition: result.QueuePosition,
	})
}

// GetJobStatus handles GET /api/v1/tasks/jobs/:job_id
func (h *TaskHandler) GetJobStatus(c *gin.Context) {
	jobID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	status, err := h.statuses.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found or expired",
			})
			return
		}
		h.logger.Error("Failed to get job status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job status",
		})
		return
	}

	c.JSON(http.StatusOK, dto.JobStatusResponse{
		JobID:     status.JobID,
		Status:    status.Status,
		Message:   status.Message,
		Error:     status.Error,
		CreatedAt: status.CreatedAt.Format(time.RFC3339),
		UpdatedAt: status.UpdatedAt.Format(time.RFC3339),
	})
}

// GetJobResult handles GET /api/v1/tasks/jobs/:job_id/result
// Returns the created task once the job completed, the stored error once it
// failed, and a conflict while it is still unresolved.
func (h *TaskHandler) GetJobResult(c *gin.Context) {
	jobID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	status, err := h.statuses.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found or expired",
			})
			return
		}
		h.logger.Error("Failed to get job status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job status",
		})
		return
	}

	switch status.Status {
	case queue.StatusCompleted:
		var task storage.Task
		if err := h.statuses.GetResult(c.Request.Context(), jobID, &task); err != nil {
			if errors.Is(err, queue.ErrJobNotFound) {
				// Status and result expire independently; the result can be
				// gone while the status record still reads completed.
				c.JSON(http.StatusNotFound, gin.H{
					"error": "Job result not found or expired",
				})
				return
			}
			h.logger.Error("Failed to get job result", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get job result",
			})
			return
		}
		c.JSON(http.StatusOK, dto.JobResultResponse{
			JobID:  jobID,
			Status: status.Status,
			Result: &task,
		})

	case queue.StatusFailed:
		c.JSON(http.StatusOK, dto.JobResultResponse{
			JobID:  jobID,
			Status: status.Status,
			Error:  status.Error,
		})

	default:
		c.JSON(http.StatusConflict, gin.H{
			"error": "Job is still " + status.Status + ", poll the status endpoint first",
		})
	}
}

// GetQueueStats handles GET /api/v1/tasks/queue/stats
func (h *TaskHandler) GetQueueStats(c *gin.Context) {
	stats := h.queue.Stats(c.Request.Context())

	c.JSON(http.StatusOK, dto.QueueStatsResponse{
		QueueSize:             stats.QueueSize,
		BackingStoreAvailable: stats.BackingStoreAvailable,
		QueueName:             stats.QueueName,
	})
}

func (h *TaskHandler) jobIDParam(c *gin.Context) (string, bool) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return "", false
	}
	return jobID, true
}
