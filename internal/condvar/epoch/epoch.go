// Package epoch implements the release generation counter of the condition variable.
//
// Every waiter records the epoch current at the moment it starts waiting.
// A signal or broadcast that finds pending waiters folds them into a new
// epoch by advancing the counter; only waiters whose recorded epoch is
// strictly older than the current one are eligible to be released. A waiter
// that arrives while a release is draining records the already advanced
// epoch and is therefore deferred to the next release.
//
// The counter returns to Zero whenever the condition has no pending or
// waiting goroutines, so it never grows without bound in practice.
package epoch

import "strconv"

// Epoch identifies a generation of condition-variable waiters.
type Epoch uint64

// Zero is the epoch of an idle condition variable.
const Zero Epoch = 0

// Next returns the epoch that follows e.
//
//go:nosplit
func (e Epoch) Next() Epoch {
	return e + 1
}

// After reports whether e is a strictly later generation than other.
//
// A waiter that captured other is eligible for release once the current
// epoch is After it.
//
//go:nosplit
func (e Epoch) After(other Epoch) bool {
	return e > other
}

// String returns the epoch as "#n" for debugging output.
func (e Epoch) String() string {
	return "#" + strconv.FormatUint(uint64(e), 10)
}
