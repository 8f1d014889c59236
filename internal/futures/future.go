package futures

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/errgo.v1"

	"github.com/kolkov/condsync/internal/syncerr"
)

// Forever passed as a timeout waits without a deadline.
const Forever time.Duration = -1

var lastID atomic.Uint64

// Future holds the eventual outcome of a task.
//
// The zero value is not usable; create futures with NewFuture.
type Future struct {
	id uint64

	mu    sync.Mutex
	done  chan struct{} // closed on entering Cancelled or Finished
	state State
	value any
	err   error

	waiters   []waiter
	callbacks []func(*Future)
}

// NewFuture returns a Pending future with a fresh ID.
func NewFuture() *Future {
	return &Future{
		id:   lastID.Add(1),
		done: make(chan struct{}),
	}
}

// ID returns the future's process-unique identity. Futures held together
// are locked in ascending ID order.
func (f *Future) ID() uint64 {
	return f.id
}

// String describes the future for log output.
func (f *Future) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.state == Finished && f.err != nil:
		return fmt.Sprintf("<Future %d state=%s raised %v>", f.id, f.state, f.err)
	case f.state == Finished:
		return fmt.Sprintf("<Future %d state=%s returned %T>", f.id, f.state, f.value)
	default:
		return fmt.Sprintf("<Future %d state=%s>", f.id, f.state)
	}
}

// State returns a snapshot of the lifecycle state.
func (f *Future) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Cancelled reports whether the future was cancelled.
func (f *Future) Cancelled() bool {
	return f.State().cancelled()
}

// Running reports whether the future is currently running.
func (f *Future) Running() bool {
	return f.State() == Running
}

// Done reports whether the future was cancelled or has finished.
func (f *Future) Done() bool {
	return f.State().terminal()
}

// Cancel cancels the future if it has not started running. It returns false
// if the future is running or finished, true if it is (now) cancelled.
func (f *Future) Cancel() bool {
	f.mu.Lock()
	switch {
	case f.state == Running || f.state == Finished:
		f.mu.Unlock()
		return false
	case f.state.cancelled():
		f.mu.Unlock()
		return true
	}

	f.state = Cancelled
	close(f.done)
	callbacks := f.takeCallbacks()
	f.mu.Unlock()

	debugf("future %d cancelled", f.id)
	f.invokeCallbacks(callbacks)
	return true
}

// Result waits up to timeout for the future and returns its value, or the
// error it finished with. A negative timeout (Forever) waits indefinitely.
//
// If the future was cancelled the error has cause syncerr.ErrCancelled; if
// the timeout elapses first, syncerr.ErrTimeout.
func (f *Future) Result(timeout time.Duration) (any, error) {
	ctx, cancel := withTimeout(context.Background(), timeout)
	defer cancel()
	return f.ResultContext(ctx)
}

// ResultContext is like Result with the wait bounded by ctx. A context
// deadline is reported as syncerr.ErrTimeout; other context errors are
// returned with ctx.Err() as their cause.
func (f *Future) ResultContext(ctx context.Context) (any, error) {
	if err := f.await(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Exception waits like Result and returns the error the future finished
// with, nil if it finished with a value. The second error reports why the
// wait itself failed.
func (f *Future) Exception(timeout time.Duration) (error, error) {
	ctx, cancel := withTimeout(context.Background(), timeout)
	defer cancel()
	return f.ExceptionContext(ctx)
}

// ExceptionContext is like Exception with the wait bounded by ctx.
func (f *Future) ExceptionContext(ctx context.Context) (error, error) {
	if err := f.await(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err, nil
}

// await blocks until the future is finished, it is cancelled, or ctx ends.
func (f *Future) await(ctx context.Context) error {
	f.mu.Lock()
	state := f.state
	f.mu.Unlock()

	if !state.terminal() {
		select {
		case <-f.done:
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	state = f.state
	f.mu.Unlock()

	switch {
	case state.cancelled():
		return syncerr.Cancelledf("future %d was cancelled", f.id)
	case state == Finished:
		return nil
	case ctx.Err() == context.DeadlineExceeded:
		return syncerr.Timeoutf("future %d not done before deadline", f.id)
	default:
		return errgo.NoteMask(ctx.Err(), fmt.Sprintf("waiting for future %d", f.id), errgo.Any)
	}
}

// AddDoneCallback arranges for fn to be called with the future once it is
// cancelled or finished. Callbacks run in registration order; if the
// future is already done, fn runs immediately in the calling goroutine.
func (f *Future) AddDoneCallback(fn func(*Future)) {
	f.mu.Lock()
	if !f.state.terminal() {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.runCallback(fn)
}

// SetRunningOrNotifyCancel claims the future for execution. It returns true
// and moves the future to Running if it was Pending. If the future was
// cancelled it tells the future's waiters and returns false; the task must
// then not run.
//
// Any other state panics with a *syncerr.ProtocolError.
func (f *Future) SetRunningOrNotifyCancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case Cancelled:
		f.state = CancelledAndNotified
		for _, w := range f.waiters {
			w.addCancelled(f)
		}
		return false
	case Pending:
		f.state = Running
		return true
	default:
		logf("future %d in unexpected state: %s", f.id, f.state)
		syncerr.Violation("Future.SetRunningOrNotifyCancel", "future %d in unexpected state %s", f.id, f.state)
		return false
	}
}

// SetResult finishes the future with value v. Setting the outcome of a
// future that is already done panics with a *syncerr.ProtocolError.
func (f *Future) SetResult(v any) {
	f.finish("Future.SetResult", v, nil)
}

// SetException finishes the future with err. Setting the outcome of a
// future that is already done panics with a *syncerr.ProtocolError.
func (f *Future) SetException(err error) {
	f.finish("Future.SetException", nil, err)
}

func (f *Future) finish(op string, v any, err error) {
	f.mu.Lock()
	if f.state.terminal() {
		state := f.state
		f.mu.Unlock()
		syncerr.Violation(op, "future %d is already %s", f.id, state)
	}

	f.value, f.err = v, err
	f.state = Finished
	for _, w := range f.waiters {
		if err != nil {
			w.addException(f)
		} else {
			w.addResult(f)
		}
	}
	close(f.done)
	callbacks := f.takeCallbacks()
	f.mu.Unlock()

	debugf("future %d finished", f.id)
	f.invokeCallbacks(callbacks)
}

// takeCallbacks detaches the queued callbacks. f.mu must be held.
func (f *Future) takeCallbacks() []func(*Future) {
	callbacks := f.callbacks
	f.callbacks = nil
	return callbacks
}

func (f *Future) invokeCallbacks(callbacks []func(*Future)) {
	for _, fn := range callbacks {
		f.runCallback(fn)
	}
}

func (f *Future) runCallback(fn func(*Future)) {
	defer func() {
		if r := recover(); r != nil {
			reportCallbackPanic(f, r)
		}
	}()
	fn(f)
}

// addWaiter installs w. f.mu must be held.
func (f *Future) addWaiter(w waiter) {
	f.waiters = append(f.waiters, w)
}

// removeWaiter uninstalls w.
func (f *Future) removeWaiter(w waiter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, x := range f.waiters {
		if x == w {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout < 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
