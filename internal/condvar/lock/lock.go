// Package lock provides the mutual-exclusion collaborators the condition
// variable is built on.
//
// Any type implementing Locker can back a cond.Condition. Two are provided:
//
//   - Mutex: a blocking mutex (sync.Mutex) that additionally records which
//     goroutine holds it, so Condition.Wait can reject callers that do not.
//   - SpinLock: a compare-and-swap lock with exponential backoff, for very
//     short critical sections.
package lock

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/kolkov/condsync/internal/goid"
	"github.com/kolkov/condsync/internal/syncerr"
)

// Locker is the capability a condition variable needs from its lock.
type Locker interface {
	sync.Locker

	// TryLock acquires the lock if it is free and reports whether it did.
	TryLock() bool

	// Locked reports whether the lock is currently held by anyone.
	Locked() bool

	// Owned reports whether the calling goroutine holds the lock.
	Owned() bool
}

// Mutex is an exclusive lock that knows which goroutine holds it.
//
// As with sync.Mutex, a locked Mutex may be unlocked by a goroutine other
// than the one that locked it. The zero value is an unlocked Mutex. A
// Mutex must not be copied after first use.
type Mutex struct {
	mu    sync.Mutex
	owner atomic.Int64 // goroutine ID of the holder, 0 when free
}

// New returns an unlocked Mutex.
func New() *Mutex {
	return &Mutex{}
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() {
	m.mu.Lock()
	m.owner.Store(goid.Current())
}

// TryLock acquires the mutex without blocking if it is free.
func (m *Mutex) TryLock() bool {
	if !m.mu.TryLock() {
		return false
	}
	m.owner.Store(goid.Current())
	return true
}

// Unlock releases the mutex. Unlocking an unlocked Mutex panics with a
// *syncerr.ProtocolError.
func (m *Mutex) Unlock() {
	if m.owner.Swap(0) == 0 {
		syncerr.Violation("Mutex.Unlock", "unlock of unlocked mutex")
	}
	m.mu.Unlock()
}

// Locked reports whether the mutex is held.
func (m *Mutex) Locked() bool {
	return m.owner.Load() != 0
}

// Owned reports whether the calling goroutine holds the mutex.
func (m *Mutex) Owned() bool {
	owner := m.owner.Load()
	return owner != 0 && owner == goid.Current()
}

const maxBackoff = 64

// SpinLock is a compare-and-swap lock that yields the processor with
// exponential backoff while contended. The lock word is the holder's
// goroutine ID.
//
// The zero value is an unlocked SpinLock.
type SpinLock struct {
	owner atomic.Int64
}

// NewSpinLock returns an unlocked SpinLock.
func NewSpinLock() *SpinLock {
	return new(SpinLock)
}

// Lock spins until the lock is acquired.
func (sl *SpinLock) Lock() {
	id := goid.Current()
	backoff := 1
	for !sl.owner.CompareAndSwap(0, id) {
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < maxBackoff {
			backoff <<= 1
		}
	}
}

// TryLock makes a single acquisition attempt.
func (sl *SpinLock) TryLock() bool {
	return sl.owner.CompareAndSwap(0, goid.Current())
}

// Unlock releases the lock. Unlocking an unlocked SpinLock panics with a
// *syncerr.ProtocolError.
func (sl *SpinLock) Unlock() {
	if sl.owner.Swap(0) == 0 {
		syncerr.Violation("SpinLock.Unlock", "unlock of unlocked spinlock")
	}
}

// Locked reports whether the lock is held.
func (sl *SpinLock) Locked() bool {
	return sl.owner.Load() != 0
}

// Owned reports whether the calling goroutine holds the lock.
func (sl *SpinLock) Owned() bool {
	owner := sl.owner.Load()
	return owner != 0 && owner == goid.Current()
}
