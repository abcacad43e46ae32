package usecases

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrThrottlerClosed is returned by Do after Close.
var ErrThrottlerClosed = errors.New("throttler closed")

type throttleJob struct {
	ctx  context.Context
	run  func()
	done chan struct{}
}

// Throttler serializes external calls through a FIFO queue, enforcing a
// minimum interval between dispatches. Any number of goroutines may queue
// concurrently; dispatch order is submission order and the configured rate
// is never exceeded no matter how many lookups are in flight.
type Throttler struct {
	queue     chan throttleJob
	interval  time.Duration
	closed    chan struct{}
	closeOnce sync.Once
}

// NewThrottler creates a throttler allowing requestsPerSecond dispatches.
// Rates at or below zero fall back to 10 rps.
func NewThrottler(requestsPerSecond float64) *Throttler {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	t := &Throttler{
		queue:    make(chan throttleJob, 4096),
		interval: time.Duration(float64(time.Second) / requestsPerSecond),
		closed:   make(chan struct{}),
	}
	go t.dispatch()
	return t
}

func (t *Throttler) dispatch() {
	for {
		select {
		case <-t.closed:
			return
		case job := <-t.queue:
			// Skip jobs whose caller has already given up. done stays
			// open so Do resolves through the caller's context instead
			// of reporting a run that never happened.
			if job.ctx.Err() != nil {
				continue
			}
			job.run()
			close(job.done)

			select {
			case <-time.After(t.interval):
			case <-t.closed:
				return
			}
		}
	}
}

// Do queues fn and blocks until it has run or ctx is done. When ctx expires
// first, fn may still run later but its effects are discarded by the caller.
func (t *Throttler) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	job := throttleJob{ctx: ctx, run: fn, done: make(chan struct{})}
	select {
	case t.queue <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-t.closed:
		return ErrThrottlerClosed
	}

	select {
	case <-job.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.closed:
		return ErrThrottlerClosed
	}
}

// Close stops the dispatcher. Queued jobs that have not dispatched are
// dropped.
func (t *Throttler) Close() {
	t.closeOnce.Do(func() { close(t.closed) })
}
