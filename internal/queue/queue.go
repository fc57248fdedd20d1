package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// DefaultPopTimeout bounds a blocking pop so the worker can re-check
	// its shutdown signal between messages.
	DefaultPopTimeout = 5 * time.Second
)

// Config holds queue settings
type Config struct {
	Name       string
	PopTimeout time.Duration
}

// Queue is an ordered, at-least-once hand-off of job messages backed by a
// Redis list. Push appends to the tail, Pop blocks on the head.
type Queue struct {
	client     *redis.Client
	name       string
	popTimeout time.Duration
	logger     *slog.Logger
}

// Stats describes the observable state of the queue.
type Stats struct {
	QueueSize             int64  `json:"queue_size"`
	BackingStoreAvailable bool   `json:"backing_store_available"`
	QueueName             string `json:"queue_name"`
}

// NewQueue creates a queue bound to a Redis list.
func NewQueue(client *redis.Client, cfg *Config, logger *slog.Logger) *Queue {
	popTimeout := cfg.PopTimeout
	if popTimeout <= 0 {
		popTimeout = DefaultPopTimeout
	}

	return &Queue{
		client:     client,
		name:       cfg.Name,
		popTimeout: popTimeout,
		logger:     logger,
	}
}

// Name returns the backing list key.
func (q *Queue) Name() string {
	return q.name
}

// Push appends a message to the tail of the queue. It never buffers locally:
// if the backing store is unreachable the caller gets ErrQueueUnavailable.
func (q *Queue) Push(ctx context.Context, msg *Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	if err := q.client.RPush(ctx, q.name, data).Err(); err != nil {
		q.logger.Error("Failed to push message",
			slog.String("queue", q.name),
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	q.logger.Debug("Message pushed",
		slog.String("queue", q.name),
		slog.String("job_id", msg.JobID),
		slog.Int("retry_count", msg.RetryCount),
	)

	return nil
}

// Pop blocks on the head of the queue for at most the configured timeout.
// A timeout returns (nil, nil) rather than an error so the caller can loop
// and re-check cancellation. A malformed message is logged and discarded.
func (q *Queue) Pop(ctx context.Context) (*Message, error) {
	result, err := q.client.BLPop(ctx, q.popTimeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	// BLPOP returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply length: %d", len(result))
	}

	msg, err := DecodeMessage([]byte(result[1]))
	if err != nil {
		q.logger.Error("Discarding malformed message",
			slog.String("queue", q.name),
			slog.Any("error", err),
		)
		return nil, nil
	}

	return msg, nil
}

// Size returns the approximate current depth of the queue.
func (q *Queue) Size(ctx context.Context) (int64, error) {
	size, err := q.client.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return size, nil
}

// Stats returns queue depth and backing store availability, best effort.
func (q *Queue) Stats(ctx context.Context) *Stats {
	size, err := q.Size(ctx)
	if err != nil {
		return &Stats{
			QueueSize:             0,
			BackingStoreAvailable: false,
			QueueName:             q.name,
		}
	}

	return &Stats{
		QueueSize:             size,
		BackingStoreAvailable: true,
		QueueName:             q.name,
	}
}
