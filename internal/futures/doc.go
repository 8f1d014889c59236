// Package futures coordinates task completion between many producer
// goroutines and one or more waiting goroutines.
//
// A Future is a single-assignment result cell. Its state only moves forward:
//
//	Pending ──> Running ──> Finished
//	   │
//	   └──> Cancelled ──> CancelledAndNotified
//
// Whoever runs the task calls SetRunningOrNotifyCancel before starting it
// and SetResult or SetException when it ends. Clients block on Result or
// Exception, register done callbacks, or wait on many futures at once with
// Wait and AsCompleted.
//
// # Waiters
//
// Wait and AsCompleted install a waiter on every future they observe. Each
// future reports its outcome to its waiters while holding its own lock; the
// waiter collects finished futures and posts a binary event once its quorum
// is reached (first completion, first exception, or all). Futures are
// always locked in ascending ID order when several are held together, and
// the waiter is removed from every future once the wait ends, whether it
// was satisfied, timed out, or abandoned.
//
// # Errors
//
// Programming errors (an illegal state transition) panic with
// *syncerr.ProtocolError. Expected outcomes are returned: a wait on a
// cancelled future fails with cause syncerr.ErrCancelled, an elapsed
// deadline with cause syncerr.ErrTimeout. A panicking done callback is
// recovered and logged; it never reaches the goroutine completing the
// future and never prevents the remaining callbacks from running.
package futures
