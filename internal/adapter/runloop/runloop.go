// Package runloop implements the presentation context as a single
// goroutine draining a serial task queue. Background workers marshal all
// user-visible state mutation through it.
package runloop

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/ports"
)

// RunLoop executes enqueued closures one at a time on a dedicated
// goroutine, preserving submission order.
type RunLoop struct {
	logger *slog.Logger

	tasks chan func()
	quit  chan struct{}
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// New creates and starts a run loop.
func New(logger *slog.Logger) *RunLoop {
	r := &RunLoop{
		logger: logger,
		tasks:  make(chan func(), 256),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *RunLoop) run() {
	defer close(r.done)
	for {
		select {
		case fn := <-r.tasks:
			r.exec(fn)
		case <-r.quit:
			// drain whatever is already queued before exiting
			for {
				select {
				case fn := <-r.tasks:
					r.exec(fn)
				default:
					return
				}
			}
		}
	}
}

// exec runs a task, recovering panics so one bad task cannot kill the
// presentation context.
func (r *RunLoop) exec(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("run loop task panicked", slog.Any("panic", rec))
		}
	}()
	fn()
}

// Dispatch enqueues fn for asynchronous execution.
// Dispatching to a closed run loop is a silent no-op.
func (r *RunLoop) Dispatch(fn func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	select {
	case r.tasks <- fn:
	case <-r.quit:
	}
}

// DispatchWait enqueues fn and blocks until it has run, or until the
// timeout expires. Used by the sequencer to confirm a track actually
// started before it begins polling for the end.
func (r *RunLoop) DispatchWait(fn func(), timeout time.Duration) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.ErrDispatcherClosed
	}
	r.mu.Unlock()

	executed := make(chan struct{})
	wrapped := func() {
		defer close(executed)
		fn()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r.tasks <- wrapped:
	case <-r.quit:
		return domain.ErrDispatcherClosed
	case <-timer.C:
		return domain.ErrDispatchTimeout
	}

	select {
	case <-executed:
		return nil
	case <-timer.C:
		return domain.ErrDispatchTimeout
	}
}

// Close drains pending tasks and stops the goroutine. Safe to call once.
func (r *RunLoop) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.quit)
	<-r.done
	return nil
}

// Verify that RunLoop implements the Dispatcher interface
var _ ports.Dispatcher = (*RunLoop)(nil)
