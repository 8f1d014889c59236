// Package syncx exposes the condition-variable primitives, futures and the
// executor under a single import.
//
// See doc.go for an overview and examples.
package syncx

import (
	"context"
	"iter"
	"time"

	"github.com/kolkov/condsync/internal/condvar/barrier"
	"github.com/kolkov/condsync/internal/condvar/cond"
	"github.com/kolkov/condsync/internal/condvar/event"
	"github.com/kolkov/condsync/internal/condvar/lock"
	"github.com/kolkov/condsync/internal/condvar/mrsw"
	"github.com/kolkov/condsync/internal/condvar/semaphore"
	"github.com/kolkov/condsync/internal/futures"
	"github.com/kolkov/condsync/internal/futures/executor"
	"github.com/kolkov/condsync/internal/metrics"
	"github.com/kolkov/condsync/internal/syncerr"
)

// Locks.
type (
	// Locker is the lock a Condition is built over.
	Locker = lock.Locker
	// Mutex is a Locker that can report whether it is held.
	Mutex = lock.Mutex
	// SpinLock is a busy-waiting Locker.
	SpinLock = lock.SpinLock
)

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex { return lock.New() }

// NewSpinLock returns an unlocked SpinLock.
func NewSpinLock() *SpinLock { return lock.NewSpinLock() }

// Condition variable and the primitives built on it.
type (
	Condition = cond.Condition
	Barrier   = barrier.Barrier
	Event     = event.Event
	Semaphore = semaphore.Semaphore
	MRSWLock  = mrsw.MRSWLock
)

// All makes Condition.BroadcastN release every waiter.
const All = cond.All

// NewCondition returns a Condition over l. A nil l gives the condition a
// Mutex of its own.
func NewCondition(l Locker) *Condition { return cond.New(l) }

// NewBarrier returns a Barrier releasing cohorts of parties goroutines.
func NewBarrier(parties int) (*Barrier, error) { return barrier.New(parties) }

// NewEvent returns a cleared Event.
func NewEvent() *Event { return event.New() }

// NewSemaphore returns a Semaphore with initial permits, which is also its
// maximum.
func NewSemaphore(initial int) (*Semaphore, error) { return semaphore.New(initial) }

// NewMRSWLock returns an unheld writer-preferring reader/writer lock.
func NewMRSWLock() *MRSWLock { return mrsw.New() }

// Futures.
type (
	Future         = futures.Future
	State          = futures.State
	ReturnWhen     = futures.ReturnWhen
	DoneAndNotDone = futures.DoneAndNotDone
	Logger         = futures.Logger
)

const (
	Pending              = futures.Pending
	Running              = futures.Running
	Cancelled            = futures.Cancelled
	CancelledAndNotified = futures.CancelledAndNotified
	Finished             = futures.Finished

	FirstCompleted = futures.FirstCompleted
	FirstException = futures.FirstException
	AllCompleted   = futures.AllCompleted

	// Forever as a timeout waits without limit.
	Forever = futures.Forever
)

// NewFuture returns a pending Future.
func NewFuture() *Future { return futures.NewFuture() }

// Wait waits up to timeout for fs according to returnWhen.
func Wait(fs []*Future, timeout time.Duration, returnWhen ReturnWhen) (DoneAndNotDone, error) {
	return futures.Wait(fs, timeout, returnWhen)
}

// WaitContext is Wait bounded by ctx.
func WaitContext(ctx context.Context, fs []*Future, returnWhen ReturnWhen) (DoneAndNotDone, error) {
	return futures.WaitContext(ctx, fs, returnWhen)
}

// AsCompleted yields the futures of fs as they complete.
func AsCompleted(fs []*Future, timeout time.Duration) iter.Seq2[*Future, error] {
	return futures.AsCompleted(fs, timeout)
}

// AsCompletedContext is AsCompleted bounded by ctx.
func AsCompletedContext(ctx context.Context, fs []*Future) iter.Seq2[*Future, error] {
	return futures.AsCompletedContext(ctx, fs)
}

// SetLogger sets the sink for future diagnostics. Nil restores stderr.
func SetLogger(l Logger) { futures.SetLogger(l) }

// SetDebug enables verbose future diagnostics.
func SetDebug(debug bool) { futures.SetDebug(debug) }

// Executor.
type (
	Executor       = executor.Executor
	ExecutorOption = executor.Option
	Task           = executor.Task
	PanicError     = executor.PanicError
	Metrics        = metrics.Metrics
)

// NewExecutor starts an executor with a fixed number of workers.
func NewExecutor(workers int, opts ...ExecutorOption) (*Executor, error) {
	return executor.New(workers, opts...)
}

// WithName names an executor.
func WithName(name string) ExecutorOption { return executor.WithName(name) }

// WithMetrics makes an executor record into m.
func WithMetrics(m *Metrics) ExecutorOption { return executor.WithMetrics(m) }

// NewMetrics returns Metrics with a private registry, prefixing every name.
func NewMetrics(prefix string) *Metrics { return metrics.New(prefix, nil) }

// Errors.
type ProtocolError = syncerr.ProtocolError

var (
	ErrTimeout         = syncerr.ErrTimeout
	ErrCancelled       = syncerr.ErrCancelled
	ErrInvalidArgument = syncerr.ErrInvalidArgument
	ErrShutdown        = syncerr.ErrShutdown
)

// IsTimeout reports whether err was caused by a wait timing out.
func IsTimeout(err error) bool { return syncerr.IsTimeout(err) }

// IsCancelled reports whether err was caused by a cancelled future.
func IsCancelled(err error) bool { return syncerr.IsCancelled(err) }

// IsInvalidArgument reports whether err was caused by a bad constructor argument.
func IsInvalidArgument(err error) bool { return syncerr.IsInvalidArgument(err) }

// IsShutdown reports whether err was caused by using a shut down executor.
func IsShutdown(err error) bool { return syncerr.IsShutdown(err) }
