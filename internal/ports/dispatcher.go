// Package ports define the Dispatcher interface for the presentation context.
// All state mutation visible to the user is marshaled through it.
package ports

import (
	"time"
)

// Dispatcher serializes work onto the single presentation context.
// Background workers (scanner, sequencer) never mutate shared state
// directly; they enqueue a closure here and the presentation goroutine
// runs it. This is the single-threaded event context of the system.
//
// Thread-safety: all methods are safe to call from any goroutine.
type Dispatcher interface {
	// Dispatch enqueues fn for asynchronous execution on the presentation
	// context. Dispatching to a closed dispatcher is a silent no-op.
	Dispatch(fn func())

	// DispatchWait enqueues fn and blocks until it has executed, or until
	// the timeout expires. The bounded wait guarantees a background worker
	// makes progress even if the presentation context is unresponsive.
	//
	// Returns domain.ErrDispatchTimeout on expiry and
	// domain.ErrDispatcherClosed if the dispatcher has shut down.
	DispatchWait(fn func(), timeout time.Duration) error

	// Close drains pending work and stops the presentation goroutine.
	Close() error
}
