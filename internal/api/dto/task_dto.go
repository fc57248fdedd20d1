package dto

import (
	"time"

	"github.com/cuongbtq/taskflow-be/internal/worker/storage"
)

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=3,max=200"`
	Description string     `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=high medium low"`
	DueDate     *time.Time `json:"due_date"`
	ProjectID   int64      `json:"project_id" binding:"required"`
	AssigneeID  *int64     `json:"assignee_id"`
}

// JobAcceptedResponse acknowledges an enqueue. queue_position is an
// indicative depth at submit time, not a hard guarantee.
type JobAcceptedResponse struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	QueuePosition int64  `json:"queue_position"`
}

type JobStatusResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// JobResultResponse carries the created task for a completed job, or the
// stored error for a failed one.
type JobResultResponse struct {
	JobID  string        `json:"job_id"`
	Status string        `json:"status"`
	Result *storage.Task `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type QueueStatsResponse struct {
	QueueSize             int64  `json:"queue_size"`
	BackingStoreAvailable bool   `json:"backing_store_available"`
	QueueName             string `json:"queue_name"`
}
