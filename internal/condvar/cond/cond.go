package cond

import (
	"runtime"
	"sync"

	"github.com/kolkov/condsync/internal/condvar/epoch"
	"github.com/kolkov/condsync/internal/condvar/lock"
	"github.com/kolkov/condsync/internal/syncerr"
)

// All passed to BroadcastN releases every waiter.
const All = -1

// Condition is a condition variable layered on a lock.Locker.
//
// Several Conditions may share one Locker; each keeps its own waiters.
type Condition struct {
	// L is held while observing or changing the guarded state.
	L lock.Locker

	// idlock guards the fields below.
	idlock sync.Mutex

	// gate holds the relay token; a token present means a release is
	// looking for its next waiter.
	gate chan struct{}

	epoch     epoch.Epoch
	pending   int
	waiting   int
	toRelease int
	releasing bool
}

// New returns a Condition guarded by l. A nil l gives the Condition its own
// lock.Mutex.
func New(l lock.Locker) *Condition {
	if l == nil {
		l = lock.New()
	}
	return &Condition{
		L:    l,
		gate: make(chan struct{}, 1),
	}
}

// Lock acquires the Condition's lock.
func (c *Condition) Lock() { c.L.Lock() }

// Unlock releases the Condition's lock.
func (c *Condition) Unlock() { c.L.Unlock() }

// TryLock acquires the Condition's lock if it is free.
func (c *Condition) TryLock() bool { return c.L.TryLock() }

// Locker returns the lock guarding the Condition.
func (c *Condition) Locker() lock.Locker { return c.L }

// Wait atomically releases the lock and parks the calling goroutine until a
// later Signal or Broadcast releases it, then reacquires the lock before
// returning.
//
// Calling Wait from a goroutine that does not hold the lock panics with a
// *syncerr.ProtocolError and leaves the lock and the condition untouched.
func (c *Condition) Wait() {
	if !c.L.Owned() {
		syncerr.Violation("Condition.Wait", "wait by a goroutine that does not hold the condition's lock")
	}

	c.idlock.Lock()
	mine := c.epoch
	c.pending++
	c.idlock.Unlock()

	c.L.Unlock()

	for {
		<-c.gate

		c.idlock.Lock()
		if c.epoch.After(mine) && c.toRelease > 0 {
			c.toRelease--
			c.waiting--
			if c.toRelease > 0 {
				c.gate <- struct{}{}
			} else {
				c.releasing = false
				if c.pending == 0 && c.waiting == 0 {
					c.epoch = epoch.Zero
				}
			}
			c.idlock.Unlock()
			break
		}

		// Arrived after the fold: this release is not ours.
		c.gate <- struct{}{}
		c.idlock.Unlock()
		runtime.Gosched()
	}

	c.L.Lock()
}

// Signal wakes one goroutine waiting on c, if there is any. Which one is
// unspecified.
func (c *Condition) Signal() {
	c.BroadcastN(1)
}

// Broadcast wakes every goroutine waiting on c.
func (c *Condition) Broadcast() {
	c.BroadcastN(All)
}

// BroadcastN wakes up to n goroutines waiting on c, or all of them when n
// is All. n == 0 is a no-op and n < All panics with a *syncerr.ProtocolError.
//
// Deprecated: partial release has no known use; call Signal or Broadcast.
func (c *Condition) BroadcastN(n int) {
	if n == 0 {
		return
	}
	if n < All {
		syncerr.Violation("Condition.BroadcastN", "negative release count %d", n)
	}

	c.idlock.Lock()
	defer c.idlock.Unlock()

	if c.pending > 0 {
		c.epoch = c.epoch.Next()
		c.waiting += c.pending
		c.pending = 0
	}

	if n == All {
		c.toRelease = c.waiting
	} else {
		c.toRelease = min(c.toRelease+n, c.waiting)
	}

	if c.toRelease > 0 && !c.releasing {
		c.releasing = true
		c.gate <- struct{}{}
	}
}

// Waiters returns the number of goroutines inside Wait that have not been
// folded into a release yet (pending) and that have been folded but not yet
// released (waiting).
func (c *Condition) Waiters() (pending, waiting int) {
	c.idlock.Lock()
	defer c.idlock.Unlock()
	return c.pending, c.waiting
}

// Epoch returns the current release generation.
func (c *Condition) Epoch() epoch.Epoch {
	c.idlock.Lock()
	defer c.idlock.Unlock()
	return c.epoch
}
