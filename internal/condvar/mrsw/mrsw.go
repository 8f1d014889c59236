// Package mrsw implements a multiple-reader/single-writer lock with writer
// preference, built from two cond.Conditions sharing one lock.Mutex.
//
// Admission rules:
//
//   - A reader is admitted only while no writer is waiting or active.
//     Readers already inside are allowed to drain.
//   - A writer is admitted once no writer is active and no reader is inside.
//   - When a writer leaves, the next waiting writer goes first; readers are
//     let in only once no writer remains.
//
// WriteToRead converts the caller's write access into read access. Other
// waiting readers are released only if no other writer is waiting, and
// waiting writers proceed only after the caller's matching ReadOut.
package mrsw

import (
	"github.com/kolkov/condsync/internal/condvar/cond"
	"github.com/kolkov/condsync/internal/condvar/lock"
	"github.com/kolkov/condsync/internal/syncerr"
)

// MRSWLock is a reader/writer admission lock. Calls must be balanced:
// ReadIn with ReadOut, WriteIn with WriteOut or with WriteToRead followed
// by ReadOut. Unbalanced exits panic with a *syncerr.ProtocolError.
type MRSWLock struct {
	mu      *lock.Mutex
	readOK  *cond.Condition
	writeOK *cond.Condition

	readers int  // active readers
	writers int  // writers from WriteIn to WriteOut, waiting or active
	writing bool // one writer is active
}

// New returns an unlocked MRSWLock.
func New() *MRSWLock {
	mu := lock.New()
	return &MRSWLock{
		mu:      mu,
		readOK:  cond.New(mu),
		writeOK: cond.New(mu),
	}
}

// ReadIn blocks while any writer is waiting or active, then admits the
// caller as a reader.
func (l *MRSWLock) ReadIn() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.writers > 0 {
		l.readOK.Wait()
	}
	l.readers++
}

// ReadOut ends the caller's read access. The last reader out lets one
// waiting writer in.
func (l *MRSWLock) ReadOut() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.readers <= 0 {
		syncerr.Violation("MRSWLock.ReadOut", "no active reader")
	}
	l.readers--
	if l.readers == 0 {
		l.writeOK.Signal()
	}
}

// WriteIn registers the caller as a writer, which immediately stops new
// readers, and blocks until it has exclusive access.
func (l *MRSWLock) WriteIn() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writers++
	for l.writing || l.readers > 0 {
		l.writeOK.Wait()
	}
	l.writing = true
}

// WriteOut ends the caller's write access, handing it to the next waiting
// writer if there is one and to all waiting readers otherwise.
func (l *MRSWLock) WriteOut() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.writing {
		syncerr.Violation("MRSWLock.WriteOut", "no active writer")
	}
	l.writing = false
	l.writers--
	if l.writers > 0 {
		l.writeOK.Signal()
	} else {
		l.readOK.Broadcast()
	}
}

// WriteToRead atomically turns the caller's write access into read access.
// The caller must later call ReadOut.
func (l *MRSWLock) WriteToRead() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.writing {
		syncerr.Violation("MRSWLock.WriteToRead", "no active writer")
	}
	l.writing = false
	l.writers--
	l.readers++
	if l.writers == 0 {
		l.readOK.Broadcast()
	}
}

// Stats returns a snapshot of the admission state.
func (l *MRSWLock) Stats() (readers, writers int, writing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readers, l.writers, l.writing
}
