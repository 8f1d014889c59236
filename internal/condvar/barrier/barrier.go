// Package barrier implements an N-party rendezvous on a cond.Condition.
package barrier

import (
	"github.com/kolkov/condsync/internal/condvar/cond"
	"github.com/kolkov/condsync/internal/syncerr"
)

// Barrier blocks callers of Enter until parties of them have arrived, then
// releases the whole cohort together and rearms for the next one.
type Barrier struct {
	parties   int
	remaining int
	c         *cond.Condition
}

// New returns a Barrier for the given number of parties, which must be at
// least 1.
func New(parties int) (*Barrier, error) {
	if parties < 1 {
		return nil, syncerr.InvalidArgumentf("barrier needs at least 1 party, got %d", parties)
	}
	return &Barrier{
		parties:   parties,
		remaining: parties,
		c:         cond.New(nil),
	}, nil
}

// Parties returns the cohort size.
func (b *Barrier) Parties() int {
	return b.parties
}

// Enter blocks until parties goroutines, including the caller, have entered.
func (b *Barrier) Enter() {
	b.c.Lock()
	defer b.c.Unlock()

	b.remaining--
	if b.remaining > 0 {
		b.c.Wait()
		return
	}

	// Last arrival: rearm before anyone of this cohort can re-enter.
	b.remaining = b.parties
	b.c.Broadcast()
}
