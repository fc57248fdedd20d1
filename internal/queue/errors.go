package queue

import "errors"

var (
	// ErrProjectNotFound is returned when the referenced project does not exist
	// at enqueue time. No job is created in that case.
	ErrProjectNotFound = errors.New("project not found")

	// ErrQueueUnavailable is returned when the queue backing store cannot be reached.
	ErrQueueUnavailable = errors.New("queue backing store unavailable")

	// ErrJobNotFound is returned when a status or result record does not exist.
	// An expired record and a job that never existed are indistinguishable.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidPayload is returned when a message payload cannot be decoded
	// for its declared job type.
	ErrInvalidPayload = errors.New("invalid job payload")

	// ErrUnknownJobType is returned for messages whose type has no handler.
	// Such messages are dropped without retry.
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrMaxRetriesExceeded marks a job that exhausted its retry budget.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

// RetryableError wraps transient failures that should send the message back
// through the retry path instead of failing the job permanently.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
