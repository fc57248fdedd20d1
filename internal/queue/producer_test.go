package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	pushed  []*Message
	pushErr error
	size    int64
	sizeErr error
}

func (f *fakeEnqueuer) Push(ctx context.Context, msg *Message) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, msg)
	return nil
}

func (f *fakeEnqueuer) Size(ctx context.Context) (int64, error) {
	return f.size, f.sizeErr
}

type fakeStatusWriter struct {
	created   []string
	createErr error
}

func (f *fakeStatusWriter) CreatePending(ctx context.Context, jobID, message string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, jobID)
	return nil
}

type fakeProjectChecker struct {
	exists bool
	err    error
}

func (f *fakeProjectChecker) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	return f.exists, f.err
}

func testPayload(projectID int64) *CreateTaskPayload {
	return &CreateTaskPayload{
		Title:     "Ship onboarding flow",
		Status:    "pending",
		Priority:  "high",
		ProjectID: projectID,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducer_EnqueueCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success writes status before push and returns depth", func(t *testing.T) {
		q := &fakeEnqueuer{size: 4}
		statuses := &fakeStatusWriter{}
		producer := NewProducer(q, statuses, &fakeProjectChecker{exists: true}, discardLogger())

		result, err := producer.EnqueueCreateTask(ctx, testPayload(7))
		require.NoError(t, err)

		_, err = uuid.Parse(result.JobID)
		assert.NoError(t, err)
		assert.Equal(t, StatusPending, result.Status)
		assert.Equal(t, int64(4), result.QueuePosition)

		require.Len(t, statuses.created, 1)
		require.Len(t, q.pushed, 1)
		assert.Equal(t, result.JobID, statuses.created[0])
		assert.Equal(t, result.JobID, q.pushed[0].JobID)
		assert.Equal(t, 0, q.pushed[0].RetryCount)
	})

	t.Run("missing project fails fast with no enqueue", func(t *testing.T) {
		q := &fakeEnqueuer{}
		statuses := &fakeStatusWriter{}
		producer := NewProducer(q, statuses, &fakeProjectChecker{exists: false}, discardLogger())

		_, err := producer.EnqueueCreateTask(ctx, testPayload(999))
		require.ErrorIs(t, err, ErrProjectNotFound)

		assert.Empty(t, statuses.created, "no status record without a job")
		assert.Empty(t, q.pushed, "queue depth unchanged")
	})

	t.Run("project check error is surfaced", func(t *testing.T) {
		producer := NewProducer(&fakeEnqueuer{}, &fakeStatusWriter{},
			&fakeProjectChecker{err: errors.New("connection refused")}, discardLogger())

		_, err := producer.EnqueueCreateTask(ctx, testPayload(7))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check project")
	})

	t.Run("status write failure is service unavailable", func(t *testing.T) {
		q := &fakeEnqueuer{}
		statuses := &fakeStatusWriter{createErr: errors.New("i/o timeout")}
		producer := NewProducer(q, statuses, &fakeProjectChecker{exists: true}, discardLogger())

		_, err := producer.EnqueueCreateTask(ctx, testPayload(7))
		require.ErrorIs(t, err, ErrQueueUnavailable)
		assert.Empty(t, q.pushed)
	})

	t.Run("push failure is service unavailable", func(t *testing.T) {
		q := &fakeEnqueuer{pushErr: ErrQueueUnavailable}
		statuses := &fakeStatusWriter{}
		producer := NewProducer(q, statuses, &fakeProjectChecker{exists: true}, discardLogger())

		_, err := producer.EnqueueCreateTask(ctx, testPayload(7))
		require.ErrorIs(t, err, ErrQueueUnavailable)
	})

	t.Run("depth read failure does not fail the enqueue", func(t *testing.T) {
		q := &fakeEnqueuer{sizeErr: errors.New("LLEN failed")}
		producer := NewProducer(q, &fakeStatusWriter{}, &fakeProjectChecker{exists: true}, discardLogger())

		result, err := producer.EnqueueCreateTask(ctx, testPayload(7))
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.QueuePosition)
	})
}
