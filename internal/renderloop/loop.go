// Package renderloop runs everything that touches the render graph on one
// goroutine. The graph, its scheduler and the configuration store are not
// safe for concurrent use; other goroutines (file watchers, remote
// configuration clients, the frame driver) hand work to the loop instead of
// touching them directly.
package renderloop

import (
	"context"
	"errors"

	"github.com/vk/rendergraph/internal/ctxlog"
)

// ErrStopped is returned for work submitted after the loop stopped.
var ErrStopped = errors.New("render loop stopped")

// Task is a unit of work run on the loop goroutine.
type Task func(ctx context.Context) error

type job struct {
	task Task
	done chan error
}

// Loop serializes tasks onto a single goroutine.
type Loop struct {
	jobs    chan job
	stopped chan struct{}
}

// New creates a loop whose queue holds up to queue pending tasks.
func New(queue int) *Loop {
	return &Loop{
		jobs:    make(chan job, queue),
		stopped: make(chan struct{}),
	}
}

// Run processes tasks until ctx is done. It must be called exactly once.
func (l *Loop) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	defer close(l.stopped)
	logger.Debug("Render loop started.")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Render loop stopping.", "reason", ctx.Err())
			return ctx.Err()
		case j := <-l.jobs:
			err := j.task(ctx)
			if j.done != nil {
				j.done <- err
			} else if err != nil {
				logger.Error("Posted render loop task failed.", "error", err)
			}
		}
	}
}

// Do runs task on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, task Task) error {
	j := job{task: task, done: make(chan error, 1)}
	select {
	case l.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		// The task may have finished right before the loop stopped.
		select {
		case err := <-j.done:
			return err
		default:
			return ErrStopped
		}
	}
}

// Post queues task without waiting. Failures are logged by the loop. It
// blocks while the queue is full and gives up once the loop stops.
func (l *Loop) Post(task Task) error {
	select {
	case l.jobs <- job{task: task}:
		return nil
	case <-l.stopped:
		return ErrStopped
	}
}
