package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProcessor struct {
	count atomic.Int64
	wg    sync.WaitGroup
	block chan struct{}
}

func (p *countingProcessor) Process(ctx context.Context, _ uuid.UUID) error {
	defer p.wg.Done()
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.count.Add(1)
	return nil
}

func TestQueueProcessesAll(t *testing.T) {
	proc := &countingProcessor{}
	const n = 20
	proc.wg.Add(n)

	q := NewQueue(proc, nil, WithWorkers(3), WithQueueSize(n))
	for i := 0; i < n; i++ {
		require.NoError(t, q.Enqueue(uuid.New()))
	}
	proc.wg.Wait()
	require.NoError(t, q.Shutdown(context.Background()))
	assert.Equal(t, int64(n), proc.count.Load())
}

func TestQueueFullRejects(t *testing.T) {
	proc := &countingProcessor{block: make(chan struct{})}
	proc.wg.Add(2)

	q := NewQueue(proc, nil, WithWorkers(1), WithQueueSize(1), WithProcessTimeout(time.Second))
	// first job occupies the worker, second fills the buffer
	require.NoError(t, q.Enqueue(uuid.New()))
	// wait for the worker to pull the first job off the buffer so the
	// second enqueue lands in the buffer rather than on top of it
	require.Eventually(t, func() bool { return q.Backlog() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(uuid.New()))

	var rejected bool
	for i := 0; i < 10; i++ {
		if err := q.Enqueue(uuid.New()); err != nil {
			assert.ErrorIs(t, err, ErrQueueFull)
			rejected = true
			break
		}
		proc.wg.Add(1)
	}
	assert.True(t, rejected, "bounded queue must eventually refuse intake")

	close(proc.block)
	_ = q.Shutdown(context.Background())
}

func TestQueueClosedRejects(t *testing.T) {
	q := NewQueue(&countingProcessor{}, nil, WithWorkers(1), WithQueueSize(1))
	require.NoError(t, q.Shutdown(context.Background()))
	assert.ErrorIs(t, q.Enqueue(uuid.New()), ErrQueueClosed)
	// a second shutdown is a no-op
	assert.NoError(t, q.Shutdown(context.Background()))
}

type sinkProcessor struct{}

func (sinkProcessor) Process(context.Context, uuid.UUID) error { return nil }

func TestQueueEnqueueRacesShutdown(t *testing.T) {
	// Enqueue must never send on a channel Shutdown has closed, no
	// matter how the two interleave.
	for i := 0; i < 500; i++ {
		q := NewQueue(sinkProcessor{}, nil, WithWorkers(2), WithQueueSize(4))

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 8; j++ {
					err := q.Enqueue(uuid.New())
					if err != nil && err != ErrQueueFull && err != ErrQueueClosed {
						t.Errorf("unexpected enqueue error: %v", err)
						return
					}
				}
			}()
		}
		require.NoError(t, q.Shutdown(context.Background()))
		wg.Wait()
	}
}

func TestQueueShutdownDrains(t *testing.T) {
	proc := &countingProcessor{}
	const n = 5
	proc.wg.Add(n)

	q := NewQueue(proc, nil, WithWorkers(1), WithQueueSize(n))
	for i := 0; i < n; i++ {
		require.NoError(t, q.Enqueue(uuid.New()))
	}
	require.NoError(t, q.Shutdown(context.Background()))
	assert.Equal(t, int64(n), proc.count.Load())
}
