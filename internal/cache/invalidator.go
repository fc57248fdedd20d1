package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// taskListKeyPattern matches the read path's task collection cache entries.
const taskListKeyPattern = "tasks:list:*"

// Invalidator is the narrow surface the worker depends on. The read-through
// cache itself lives outside this subsystem; the worker only triggers
// invalidation after a durable write.
type Invalidator interface {
	InvalidateTaskLists(ctx context.Context) error
}

// RedisInvalidator deletes task-list entries from the cache database.
type RedisInvalidator struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisInvalidator creates an invalidator against the cache database.
func NewRedisInvalidator(client *redis.Client, logger *slog.Logger) *RedisInvalidator {
	return &RedisInvalidator{
		client: client,
		logger: logger,
	}
}

// InvalidateTaskLists removes every cached task-list entry. List caches are
// keyed by filter/pagination parameters, so a fresh insert invalidates all of
// them at once.
func (r *RedisInvalidator) InvalidateTaskLists(ctx context.Context) error {
	var keys []string

	iter := r.client.Scan(ctx, 0, taskListKeyPattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	r.logger.Debug("Task list cache invalidated",
		slog.Int("keys", len(keys)),
	)

	return nil
}

// NoopInvalidator satisfies Invalidator when no cache is configured.
type NoopInvalidator struct{}

func (NoopInvalidator) InvalidateTaskLists(ctx context.Context) error {
	return nil
}
