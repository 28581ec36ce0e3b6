package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

type ProcessorQueue struct {
	proc    FileProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	inv, err := q.proc.ProcessFile(ctx, job.Path)
	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "path", job.Path, "trace_id", job.TraceID, "err", err)
	} else {
		q.logger.Info("queue.job.ok", "worker_id", workerID, "path", job.Path, "trace_id", job.TraceID,
			"wait_ms", time.Since(job.SubmittedAt).Milliseconds())
	}
	if job.Done != nil {
		select {
		case job.Done <- Result{Job: job, Invoice: inv, Err: err}:
		default:
			q.logger.Warn("queue.job.result.dropped", "path", job.Path, "trace_id", job.TraceID)
		}
	}
}

// Enqueue blocks when the buffer is full until a worker frees a slot or ctx ends.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "path", job.Path)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.enqueued", "path", job.Path, "trace_id", job.TraceID)
		return nil
	default:
	}
	q.logger.Warn("queue.full.backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.ok")
	}
}

// SubmitBatch enqueues paths and waits for every result. Results come back
// in path order.
func SubmitBatch(ctx context.Context, q Queue, paths []string) ([]Result, error) {
	done := make(chan Result, len(paths))
	trace := uuid.NewString()
	submitted := 0
	for i, p := range paths {
		if err := q.Enqueue(ctx, Job{Path: p, Index: i, TraceID: trace, Done: done}); err != nil {
			return nil, err
		}
		submitted++
	}
	out := make([]Result, len(paths))
	for n := 0; n < submitted; n++ {
		select {
		case r := <-done:
			out[r.Job.Index] = r
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}
