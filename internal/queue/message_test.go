package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreateTaskMessage(t *testing.T) {
	payload := &CreateTaskPayload{
		Title:     "Write release notes",
		Status:    "pending",
		Priority:  "high",
		ProjectID: 7,
	}

	msg, err := NewCreateTaskMessage(payload)
	require.NoError(t, err)

	_, err = uuid.Parse(msg.JobID)
	assert.NoError(t, err, "job_id should be a valid UUID")
	assert.Equal(t, JobTypeCreateTask, msg.Type)
	assert.Equal(t, 0, msg.RetryCount)
	assert.Nil(t, msg.LastRetryAt)
	assert.False(t, msg.EnqueuedAt.IsZero())

	decoded, err := msg.CreateTaskPayload()
	require.NoError(t, err)
	assert.Equal(t, payload.Title, decoded.Title)
	assert.Equal(t, payload.ProjectID, decoded.ProjectID)
}

func TestMessage_EncodeDecode(t *testing.T) {
	msg, err := NewCreateTaskMessage(&CreateTaskPayload{
		Title:     "Fix login redirect",
		Status:    "pending",
		Priority:  "medium",
		ProjectID: 3,
	})
	require.NoError(t, err)

	data, err := msg.Encode()
	require.NoError(t, err)

	got, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, msg.JobID, got.JobID)
	assert.Equal(t, msg.Type, got.Type)
	assert.Equal(t, msg.RetryCount, got.RetryCount)
}

func TestDecodeMessage_Malformed(t *testing.T) {
	_, err := DecodeMessage([]byte("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode message")
}

func TestMessage_CreateTaskPayload_UnknownType(t *testing.T) {
	msg := &Message{
		JobID:   uuid.New().String(),
		Type:    "resize_image",
		Payload: []byte(`{}`),
	}

	_, err := msg.CreateTaskPayload()
	require.ErrorIs(t, err, ErrUnknownJobType)
}

func TestMessage_Bump(t *testing.T) {
	msg, err := NewCreateTaskMessage(&CreateTaskPayload{
		Title:     "Add metrics endpoint",
		Status:    "pending",
		Priority:  "low",
		ProjectID: 1,
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	bumped := msg.Bump(now)

	// Bump returns a new message; the popped one is never mutated.
	assert.Equal(t, 0, msg.RetryCount)
	assert.Nil(t, msg.LastRetryAt)

	assert.Equal(t, 1, bumped.RetryCount)
	require.NotNil(t, bumped.LastRetryAt)
	assert.Equal(t, now, *bumped.LastRetryAt)
	assert.Equal(t, msg.JobID, bumped.JobID)
	assert.Equal(t, msg.EnqueuedAt, bumped.EnqueuedAt)

	// Retry count is monotonically non-decreasing across requeues.
	again := bumped.Bump(now.Add(time.Second))
	assert.Equal(t, 2, again.RetryCount)
}
