package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueFull   = errors.New("processing queue is full")
	ErrQueueClosed = errors.New("processing queue is shut down")
)

// Processor runs one job to completion. Satisfied by *Orchestrator.
type Processor interface {
	Process(ctx context.Context, jobID uuid.UUID) error
}

// Queue is a bounded worker pool that drains submitted jobs through a
// Processor. Submission is non-blocking: when the buffer is full the
// caller gets ErrQueueFull and decides what to do with the job.
type Queue struct {
	proc    Processor
	tasks   chan uuid.UUID
	timeout time.Duration
	log     *slog.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

type QueueOption func(*queueOptions)

type queueOptions struct {
	workers   int
	queueSize int
	timeout   time.Duration
}

func WithWorkers(n int) QueueOption {
	return func(o *queueOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(o *queueOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithProcessTimeout bounds a single job run. Zero means no bound.
func WithProcessTimeout(d time.Duration) QueueOption {
	return func(o *queueOptions) {
		o.timeout = d
	}
}

func NewQueue(proc Processor, logger *slog.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	o := queueOptions{workers: 4, queueSize: 64, timeout: 10 * time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		proc:    proc,
		tasks:   make(chan uuid.UUID, o.queueSize),
		timeout: o.timeout,
		log:     logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
	for i := 0; i < o.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	logger.Info("queue.start", "workers", o.workers, "queue_size", o.queueSize, "process_timeout", o.timeout)
	return q
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for jobID := range q.tasks {
		q.run(id, jobID)
	}
}

func (q *Queue) run(worker int, jobID uuid.UUID) {
	ctx := q.baseCtx
	cancel := context.CancelFunc(func() {})
	if q.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
	}
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			q.log.Error("queue.worker.panic", "worker", worker, "job_id", jobID, "panic", r)
		}
	}()

	start := time.Now()
	if err := q.proc.Process(ctx, jobID); err != nil {
		q.log.Error("queue.job.failed",
			"worker", worker, "job_id", jobID,
			"elapsed_ms", time.Since(start).Milliseconds(), "error", err)
		return
	}
	q.log.Info("queue.job.done",
		"worker", worker, "job_id", jobID,
		"elapsed_ms", time.Since(start).Milliseconds())
}

// Enqueue hands a job to the pool. The mutex stays held across the
// send so Shutdown cannot close the channel between the closed check
// and the send.
func (q *Queue) Enqueue(jobID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- jobID:
		q.log.Debug("queue.enqueue", "job_id", jobID, "depth", len(q.tasks))
		return nil
	default:
		return ErrQueueFull
	}
}

// Backlog reports the number of queued, not-yet-started jobs.
func (q *Queue) Backlog() int {
	return len(q.tasks)
}

// Shutdown stops intake, then waits for in-flight and queued jobs to
// drain or for ctx to expire, whichever comes first.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.log.Info("queue.shutdown.clean")
		return nil
	case <-ctx.Done():
		q.cancel()
		q.wg.Wait()
		return fmt.Errorf("queue shutdown interrupted: %w", ctx.Err())
	}
}
