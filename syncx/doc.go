// Package syncx provides synchronization primitives built on a condition
// variable that is itself assembled from a plain mutex and a ticket relay,
// plus futures with Wait and AsCompleted helpers.
//
// # Condition
//
// A Condition is bound to a Locker. Wait must be called with the lock held;
// it releases the lock while parked and holds it again on return. Signal
// releases one waiter and Broadcast releases every goroutine that was
// waiting when it was called. Waiters arriving after a release are never
// woken by it, and there are no spurious wakeups, although callers should
// still re-check their predicate in a loop:
//
//	c := syncx.NewCondition(nil)
//	c.Lock()
//	for !ready {
//		c.Wait()
//	}
//	c.Unlock()
//
// # Primitives
//
// Built on Condition:
//   - [Barrier]: releases cohorts of a fixed number of goroutines
//   - [Event]: a sticky flag that waiters block on until it is posted
//   - [Semaphore]: a counting semaphore whose maximum is its initial count
//   - [MRSWLock]: a reader/writer lock that prefers writers
//
// Misuse, such as waiting without the lock or releasing an unheld
// MRSWLock, panics with a *[ProtocolError].
//
// # Futures
//
// A [Future] holds the outcome of a computation. Producers drive it
// through SetRunningOrNotifyCancel and then SetResult or SetException;
// consumers read it with Result or Exception, register callbacks, or wait
// on several futures at once:
//
//	res, err := syncx.Wait(fs, time.Second, syncx.FirstCompleted)
//
//	for f, err := range syncx.AsCompleted(fs, syncx.Forever) {
//		...
//	}
//
// An [Executor] runs tasks on a fixed set of workers and hands back
// futures for them.
//
// # Errors
//
// Timeouts, cancellation, bad arguments and use after shutdown are
// reported as errors whose cause can be tested with [IsTimeout],
// [IsCancelled], [IsInvalidArgument] and [IsShutdown].
package syncx
