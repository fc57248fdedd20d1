package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// Job lifecycle states. Pending is the only initial state; completed and
// failed are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const (
	statusKeyPrefix = "job:status:"
	resultKeyPrefix = "job:result:"

	// DefaultJobTTL is the retention window for status and result records.
	DefaultJobTTL = time.Hour
)

// JobStatus is the durable lifecycle record for one job id. It is updated in
// place until it expires; it is never deleted explicitly.
type JobStatus struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// statusClient is the string-command surface the store uses. Satisfied by
// *redis.Client.
type statusClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// StatusStore keeps job status and result records in Redis string keys with a
// retention TTL.
type StatusStore struct {
	client statusClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewStatusStore creates a status store. A non-positive ttl falls back to
// DefaultJobTTL.
func NewStatusStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *StatusStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}

	return &StatusStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// CreatePending writes the initial status record for a freshly enqueued job.
func (s *StatusStore) CreatePending(ctx context.Context, jobID, message string) error {
	now := time.Now().UTC()
	record := &JobStatus{
		JobID:     jobID,
		Status:    StatusPending,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.write(ctx, jobID, record)
}

// Update transitions the status record for jobID in place. The original
// created_at is carried forward. Terminal states absorb: an update against a
// completed or failed record is ignored.
func (s *StatusStore) Update(ctx context.Context, jobID, status, message, errMsg string) error {
	now := time.Now().UTC()
	record := &JobStatus{
		JobID:     jobID,
		Status:    status,
		Message:   message,
		Error:     errMsg,
		CreatedAt: now,
		UpdatedAt: now,
	}

	existing, err := s.Get(ctx, jobID)
	if err != nil && !errors.Is(err, ErrJobNotFound) {
		return err
	}
	if existing != nil {
		if !canTransition(existing.Status, status) {
			s.logger.Warn("Ignoring status transition out of terminal state",
				slog.String("job_id", jobID),
				slog.String("from", existing.Status),
				slog.String("to", status),
			)
			return nil
		}
		record.CreatedAt = existing.CreatedAt
	}

	if err := s.write(ctx, jobID, record); err != nil {
		return err
	}

	s.logger.Debug("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)

	return nil
}

// Get returns the status record for jobID. An expired record and a job that
// never existed both return ErrJobNotFound.
func (s *StatusStore) Get(ctx context.Context, jobID string) (*JobStatus, error) {
	data, err := s.client.Get(ctx, statusKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job status: %w", err)
	}

	var record JobStatus
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode job status: %w", err)
	}

	return &record, nil
}

// SaveResult stores the materialized result of a completed job with the same
// TTL family as the status record.
func (s *StatusStore) SaveResult(ctx context.Context, jobID string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}

	if err := s.client.Set(ctx, resultKeyPrefix+jobID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job result: %w", err)
	}

	return nil
}

// GetResult loads the result record for jobID into dest.
func (s *StatusStore) GetResult(ctx context.Context, jobID string, dest any) error {
	data, err := s.client.Get(ctx, resultKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to get job result: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode job result: %w", err)
	}

	return nil
}

func (s *StatusStore) write(ctx context.Context, jobID string, record *JobStatus) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}

	if err := s.client.Set(ctx, statusKeyPrefix+jobID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write job status: %w", err)
	}

	return nil
}

// canTransition reports whether a status record may move from one state to
// another. Completed and failed never transition out.
func canTransition(from, to string) bool {
	switch from {
	case StatusCompleted, StatusFailed:
		return false
	default:
		return true
	}
}
