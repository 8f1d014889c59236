// Package cond implements a condition variable rebuilt from a mutex and an
// epoch/ticket relay, without sync.Cond.
//
// # Protocol
//
// A Condition keeps a handful of counters behind a small internal lock that
// is only ever held for O(1) bookkeeping, never across a block:
//
//   - pending: goroutines inside Wait that no signal has seen yet
//   - waiting: goroutines folded into the current epoch, parked on the gate
//   - toRelease: wakeups still owed by the release batch in progress
//   - releasing: whether a release batch is draining
//
// The gate is a binary latch holding at most one token. Parked waiters
// block taking the token. Signal and Broadcast fold every pending waiter
// into a new epoch, raise toRelease, and if no batch is running put the
// token into the gate. Whoever takes the token checks its eligibility: a
// waiter whose recorded epoch is older than the current one consumes one
// wakeup, and if more are owed hands the token to the next waiter. A waiter
// that arrived after the fold hands the token straight back and keeps
// waiting. The last waiter released by a batch keeps the token, which closes
// the gate again.
//
// Because exactly one token circulates, exactly N goroutines are released
// by a batch of N, and every Wait return is caused by a matching release.
// There are no spurious wakeups.
//
// # Usage
//
// The lock handoff idiom guarantees a signal is never missed:
//
//	done := cond.New(nil)
//	done.Lock()
//	go func() {
//		work()
//		done.Lock()
//		done.Signal()
//		done.Unlock()
//	}()
//	done.Wait() // the goroutine cannot signal before we are pending
//	done.Unlock()
//
// # Thread Safety
//
// All methods are safe for concurrent use. Wait, Signal and Broadcast must
// be called with the Condition's lock held.
package cond
