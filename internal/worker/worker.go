package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuongbtq/taskflow-be/internal/cache"
	"github.com/cuongbtq/taskflow-be/internal/queue"
	"github.com/cuongbtq/taskflow-be/internal/worker/storage"
)

// Queue is the message channel surface the worker needs: a bounded blocking
// pop and a push used by the retry path.
type Queue interface {
	Pop(ctx context.Context) (*queue.Message, error)
	Push(ctx context.Context, msg *queue.Message) error
}

// StatusStore records lifecycle transitions and final results.
type StatusStore interface {
	Update(ctx context.Context, jobID, status, message, errMsg string) error
	SaveResult(ctx context.Context, jobID string, result any) error
}

// TaskStore performs the durable domain write.
type TaskStore interface {
	CreateTask(ctx context.Context, payload *queue.CreateTaskPayload) (*storage.Task, error)
}

// DefaultMaxRetries is the retry ceiling beyond the first attempt.
const DefaultMaxRetries = 3

// Config holds worker configuration
type Config struct {
	Logger      *slog.Logger
	Queue       Queue
	Statuses    StatusStore
	Tasks       TaskStore
	Cache       cache.Invalidator
	Concurrency int
	MaxRetries  int
}

// Worker consumes job messages and executes them one at a time per loop.
// Horizontal throughput comes from running more loops (or more processes);
// that is safe because the queue pop is atomic.
type Worker struct {
	logger      *slog.Logger
	queue       Queue
	statuses    StatusStore
	tasks       TaskStore
	cache       cache.Invalidator
	concurrency int
	maxRetries  int

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}

	processed atomic.Int64
	failed    atomic.Int64
}

// New creates a worker instance.
func New(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Worker{
		logger:      cfg.Logger,
		queue:       cfg.Queue,
		statuses:    cfg.Statuses,
		tasks:       cfg.Tasks,
		cache:       cfg.Cache,
		concurrency: concurrency,
		maxRetries:  maxRetries,
		stopChan:    make(chan struct{}),
	}
}

// Start spawns the consumer loops and blocks until the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.Int("concurrency", w.concurrency),
		slog.Int("max_retries", w.maxRetries),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")

	return nil
}

// Stop gracefully stops the worker: each loop finishes its in-flight message
// and exits at the next pop boundary. Safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()

	w.logger.Info("Worker stopped",
		slog.Int64("processed", w.processed.Load()),
		slog.Int64("failed", w.failed.Load()),
	)
}

// loop is the consumer loop for one goroutine. Each bounded pop doubles as
// the cooperative cancellation check point.
func (w *Worker) loop(ctx context.Context, num int) {
	defer w.wg.Done()

	log := w.logger.With(slog.Int("loop", num))
	log.Info("Worker loop started")

	for {
		select {
		case <-w.stopChan:
			log.Info("Worker loop stopping - stop requested")
			return
		case <-ctx.Done():
			log.Info("Worker loop stopping - context canceled")
			return
		default:
		}

		msg, err := w.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Worker loop stopping - context canceled")
				return
			}
			log.Error("Failed to pop message", slog.Any("error", err))
			time.Sleep(time.Second)
			continue
		}

		if msg == nil {
			// Pop timeout, nothing queued. Loop to re-check shutdown.
			continue
		}

		w.process(ctx, msg)
	}
}

// Counters returns the aggregate processed and failed message counts.
func (w *Worker) Counters() (processed, failed int64) {
	return w.processed.Load(), w.failed.Load()
}
