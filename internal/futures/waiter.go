package futures

import (
	"context"
	"sync"
)

// flag is a binary event that can be waited on with a deadline.
type flag struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{} // closed while set
}

func newFlag() *flag {
	return &flag{ch: make(chan struct{})}
}

func (e *flag) post() {
	e.mu.Lock()
	if !e.set {
		e.set = true
		close(e.ch)
	}
	e.mu.Unlock()
}

func (e *flag) clear() {
	e.mu.Lock()
	if e.set {
		e.set = false
		e.ch = make(chan struct{})
	}
	e.mu.Unlock()
}

func (e *flag) isSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// wait blocks until the flag is posted or ctx ends, and reports whether it
// was posted. A posted flag wins over an expired context.
func (e *flag) wait(ctx context.Context) bool {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()

	select {
	case <-ch:
		return true
	default:
	}
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

// waiter observes futures. Futures call these methods with their own lock
// held, so implementations must not lock any future.
type waiter interface {
	addResult(f *Future)
	addException(f *Future)
	addCancelled(f *Future)
	event() *flag
	finishedFutures() []*Future
}

// baseWaiter collects finished futures behind its own lock.
type baseWaiter struct {
	mu       sync.Mutex
	finished []*Future
	ev       *flag
}

func (w *baseWaiter) event() *flag { return w.ev }

// add records f and, if post is set, posts the event in the same critical
// section so a concurrent drain never sees the event without the future.
func (w *baseWaiter) add(f *Future, post bool) {
	w.mu.Lock()
	w.finished = append(w.finished, f)
	if post {
		w.ev.post()
	}
	w.mu.Unlock()
}

func (w *baseWaiter) finishedFutures() []*Future {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Future(nil), w.finished...)
}

// drain takes the collected futures and clears the event.
func (w *baseWaiter) drain() []*Future {
	w.mu.Lock()
	defer w.mu.Unlock()
	finished := w.finished
	w.finished = nil
	w.ev.clear()
	return finished
}

// firstCompletedWaiter posts on the first outcome of any kind.
type firstCompletedWaiter struct {
	baseWaiter
}

func newFirstCompletedWaiter() *firstCompletedWaiter {
	return &firstCompletedWaiter{baseWaiter: baseWaiter{ev: newFlag()}}
}

func (w *firstCompletedWaiter) addResult(f *Future)    { w.add(f, true) }
func (w *firstCompletedWaiter) addException(f *Future) { w.add(f, true) }
func (w *firstCompletedWaiter) addCancelled(f *Future) { w.add(f, true) }

// allCompletedWaiter posts once pending futures have all reported, or on
// the first exception when stopOnException is set.
type allCompletedWaiter struct {
	baseWaiter
	pending         int
	stopOnException bool
}

func newAllCompletedWaiter(pending int, stopOnException bool) *allCompletedWaiter {
	return &allCompletedWaiter{
		baseWaiter:      baseWaiter{ev: newFlag()},
		pending:         pending,
		stopOnException: stopOnException,
	}
}

func (w *allCompletedWaiter) addResult(f *Future) {
	w.add(f, false)
	w.decrementPending()
}

func (w *allCompletedWaiter) addException(f *Future) {
	w.add(f, false)
	if w.stopOnException {
		w.ev.post()
		return
	}
	w.decrementPending()
}

func (w *allCompletedWaiter) addCancelled(f *Future) {
	w.add(f, false)
	w.decrementPending()
}

func (w *allCompletedWaiter) decrementPending() {
	w.mu.Lock()
	w.pending--
	if w.pending == 0 {
		w.ev.post()
	}
	w.mu.Unlock()
}

// asCompletedWaiter posts on every outcome; its consumer drains the
// collected futures and clears the event between waits.
type asCompletedWaiter struct {
	baseWaiter
}

func newAsCompletedWaiter() *asCompletedWaiter {
	return &asCompletedWaiter{baseWaiter: baseWaiter{ev: newFlag()}}
}

func (w *asCompletedWaiter) addResult(f *Future)    { w.add(f, true) }
func (w *asCompletedWaiter) addException(f *Future) { w.add(f, true) }
func (w *asCompletedWaiter) addCancelled(f *Future) { w.add(f, true) }
