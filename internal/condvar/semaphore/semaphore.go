// Package semaphore implements a bounded counting semaphore on a cond.Condition.
package semaphore

import (
	"github.com/kolkov/condsync/internal/condvar/cond"
	"github.com/kolkov/condsync/internal/syncerr"
)

// Semaphore hands out at most MaxCount permits at a time.
//
// The ceiling is fixed at construction; releasing more permits than were
// acquired is a caller bug, reported by panic rather than clamped.
type Semaphore struct {
	count    int
	maxCount int
	c        *cond.Condition
}

// New returns a Semaphore with initial permits, all available. initial
// must be at least 1.
func New(initial int) (*Semaphore, error) {
	if initial < 1 {
		return nil, syncerr.InvalidArgumentf("semaphore needs at least 1 permit, got %d", initial)
	}
	return &Semaphore{
		count:    initial,
		maxCount: initial,
		c:        cond.New(nil),
	}, nil
}

// P acquires a permit, blocking while none is available.
func (s *Semaphore) P() {
	s.c.Lock()
	defer s.c.Unlock()

	for s.count == 0 {
		s.c.Wait()
	}
	s.count--
}

// V returns a permit and wakes one blocked P. Returning a permit to a full
// semaphore panics with a *syncerr.ProtocolError.
func (s *Semaphore) V() {
	s.c.Lock()
	defer s.c.Unlock()

	if s.count == s.maxCount {
		syncerr.Violation("Semaphore.V", "release exceeds the %d permits the semaphore holds", s.maxCount)
	}
	s.count++
	s.c.Signal()
}

// Count returns the number of permits currently available.
func (s *Semaphore) Count() int {
	s.c.Lock()
	defer s.c.Unlock()
	return s.count
}

// MaxCount returns the permit ceiling.
func (s *Semaphore) MaxCount() int {
	return s.maxCount
}
