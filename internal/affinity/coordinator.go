package affinity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// UIToken is proof that the holder is executing on the UI-affine context.
// Tokens are minted only by the coordinator's run loop and handed to
// scheduled functions; they must not be stored or used after the function
// returns.
type UIToken struct {
	c *Coordinator
}

// uiTask is one unit of work queued for the UI goroutine.
type uiTask struct {
	ctx    context.Context
	fn     func(UIToken) error
	result chan error
}

// Coordinator owns the UI-affine goroutine. All UI-only host state is read
// and written by tasks scheduled through RunOnUI; everything else runs on
// the caller's own goroutine, which is treated as background execution.
type Coordinator struct {
	queue  chan uiTask
	stop   chan struct{}
	done   chan struct{}
	closed atomic.Bool

	closeOnce sync.Once
}

// NewCoordinator starts the UI-affine run loop.
func NewCoordinator() *Coordinator {
	c := &Coordinator{
		queue: make(chan uiTask, 16),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.loop()
	return c
}

// loop is the UI-affine context. Tasks run one at a time in FIFO order.
func (c *Coordinator) loop() {
	defer close(c.done)
	for {
		select {
		case t := <-c.queue:
			c.dispatch(t)
		case <-c.stop:
			// Drain anything that raced past the closed check.
			for {
				select {
				case t := <-c.queue:
					t.result <- ErrClosed
				default:
					return
				}
			}
		}
	}
}

// dispatch runs one task, honoring its context and containing panics.
func (c *Coordinator) dispatch(t uiTask) {
	if err := t.ctx.Err(); err != nil {
		t.result <- err
		return
	}
	t.result <- c.run(t.fn)
}

func (c *Coordinator) run(fn func(UIToken) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(UIToken{c: c})
}

// RunOnUI schedules fn onto the UI-affine context and blocks until it
// completes. The context is consulted while the task is queued and once
// more just before it starts; once fn begins executing, RunOnUI always
// waits for it to finish. Must not be called from a function that is
// itself running on the UI context — code already holding a UIToken calls
// its target directly instead.
func (c *Coordinator) RunOnUI(ctx context.Context, fn func(UIToken) error) error {
	if c.closed.Load() {
		return ErrClosed
	}
	t := uiTask{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case c.queue <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
	select {
	case err := <-t.result:
		return err
	case <-c.done:
		// Loop exited. Its shutdown drain answers tasks it saw; a task
		// enqueued after the drain finished is answered by nobody, so
		// check once more and give up.
		select {
		case err := <-t.result:
			return err
		default:
			return ErrClosed
		}
	}
}

// Close stops the UI run loop. Queued tasks that have not started fail
// with ErrClosed; a task already running finishes first.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.stop)
		<-c.done
	})
}
