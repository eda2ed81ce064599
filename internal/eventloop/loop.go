// Package eventloop provides the single logical event loop that drives
// editor state, publish polling, and autosave timers.
//
// Every callback handed to a Loop runs on the loop, one at a time, so state
// owned by loop-bound components needs no locking. Blocking I/O runs off the
// loop through Go, and only its completion callback touches state.
package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a pending callback scheduled with AfterFunc.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// timer was still pending. After Stop returns the callback never runs,
	// even if its deadline already passed.
	Stop() bool
}

// Loop serializes callbacks onto a single logical thread.
type Loop interface {
	// Post queues fn to run on the loop.
	Post(fn func())
	// AfterFunc runs fn on the loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
	// Go runs work off the loop, then queues done on the loop.
	Go(work func(), done func())
	// Now returns the loop's notion of the current time.
	Now() time.Time
}

// Runner is a goroutine-backed Loop.
type Runner struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

// New creates a Runner. Callbacks run once Run is started.
func New() *Runner {
	return &Runner{wake: make(chan struct{}, 1)}
}

// Run executes queued callbacks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	defer func() {
		r.mu.Lock()
		r.closed = true
		r.queue = nil
		r.mu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
		}
		for {
			fn := r.next()
			if fn == nil {
				break
			}
			fn()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// next pops the head of the queue, or returns nil when it is empty.
func (r *Runner) next() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil
	}
	fn := r.queue[0]
	r.queue[0] = nil
	r.queue = r.queue[1:]
	return fn
}

// Post queues fn. It never blocks, including when called from the loop.
// Callbacks posted after Run returns are dropped.
func (r *Runner) Post(fn func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, fn)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// AfterFunc schedules fn on the loop after d.
func (r *Runner) AfterFunc(d time.Duration, fn func()) Timer {
	t := &runnerTimer{}
	t.timer = time.AfterFunc(d, func() {
		r.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

// Go runs work on a new goroutine and posts done when it returns.
func (r *Runner) Go(work func(), done func()) {
	go func() {
		work()
		r.Post(done)
	}()
}

// Now returns the wall clock time.
func (r *Runner) Now() time.Time {
	return time.Now()
}

// Call runs fn on the loop and waits for it to finish.
// It must not be called from the loop itself. If ctx is already done fn
// is not queued.
func (r *Runner) Call(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan struct{})
	r.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type runnerTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *runnerTimer) Stop() bool {
	t.timer.Stop()
	return t.stopped.CompareAndSwap(false, true)
}
