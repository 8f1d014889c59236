// Package event implements a sticky post/clear flag on a cond.Condition.
package event

import "github.com/kolkov/condsync/internal/condvar/cond"

// Event is a flag goroutines can wait on. Once posted it stays posted, and
// Wait returns immediately, until Clear is called.
type Event struct {
	posted bool
	c      *cond.Condition
}

// New returns an Event that is not posted.
func New() *Event {
	return &Event{c: cond.New(nil)}
}

// Post sets the flag and releases every waiter.
func (e *Event) Post() {
	e.c.Lock()
	e.posted = true
	e.c.Broadcast()
	e.c.Unlock()
}

// Clear resets the flag so later Waits block again.
func (e *Event) Clear() {
	e.c.Lock()
	e.posted = false
	e.c.Unlock()
}

// IsPosted returns a snapshot of the flag.
func (e *Event) IsPosted() bool {
	e.c.Lock()
	defer e.c.Unlock()
	return e.posted
}

// Wait blocks until the event is posted.
func (e *Event) Wait() {
	e.c.Lock()
	if !e.posted {
		e.c.Wait()
	}
	e.c.Unlock()
}
