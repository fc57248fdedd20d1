package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job type discriminators. Currently only task creation is deferred.
const (
	JobTypeCreateTask = "create_task"
)

// CreateTaskPayload holds the domain data needed to perform a task insert.
// It is decoded at dequeue time, not trusted blindly.
type CreateTaskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectID   int64      `json:"project_id"`
	AssigneeID  *int64     `json:"assignee_id,omitempty"`
}

// Message is the unit of work placed on the queue. Once popped it is never
// updated in place: a failed attempt produces a bumped copy via Bump.
type Message struct {
	JobID       string          `json:"job_id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	RetryCount  int             `json:"retry_count"`
	LastRetryAt *time.Time      `json:"last_retry_at,omitempty"`
}

// NewCreateTaskMessage builds a create-task message with a fresh job id.
func NewCreateTaskMessage(payload *CreateTaskPayload) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &Message{
		JobID:      uuid.New().String(),
		Type:       JobTypeCreateTask,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
		RetryCount: 0,
	}, nil
}

// CreateTaskPayload decodes the payload for a create-task message.
func (m *Message) CreateTaskPayload() (*CreateTaskPayload, error) {
	if m.Type != JobTypeCreateTask {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, m.Type)
	}

	var payload CreateTaskPayload
	if err := json.Unmarshal(m.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &payload, nil
}

// Bump returns a copy of the message with the retry counter incremented and
// the retry timestamp set. The original message is left untouched.
func (m *Message) Bump(now time.Time) *Message {
	bumped := *m
	bumped.RetryCount = m.RetryCount + 1
	bumped.LastRetryAt = &now
	return &bumped
}

// Encode serializes the message for the wire.
func (m *Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

// DecodeMessage parses a message popped from the queue.
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	return &msg, nil
}
