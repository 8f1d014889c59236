package futures

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"gopkg.in/errgo.v1"

	"github.com/kolkov/condsync/internal/syncerr"
)

// ReturnWhen selects when Wait returns.
type ReturnWhen int

const (
	// FirstCompleted returns when any future finishes or is cancelled.
	FirstCompleted ReturnWhen = iota
	// FirstException returns when any future finishes with an error, or
	// when all have completed.
	FirstException
	// AllCompleted returns when every future has finished or been cancelled.
	AllCompleted
)

// String returns the constant's name.
func (r ReturnWhen) String() string {
	switch r {
	case FirstCompleted:
		return "FirstCompleted"
	case FirstException:
		return "FirstException"
	case AllCompleted:
		return "AllCompleted"
	}
	return fmt.Sprintf("ReturnWhen(%d)", int(r))
}

// DoneAndNotDone partitions the futures given to Wait. Both slices keep
// the order in which the futures were passed.
type DoneAndNotDone struct {
	Done    []*Future
	NotDone []*Future
}

// Wait blocks until the futures satisfy returnWhen or timeout elapses. A
// negative timeout (Forever) waits indefinitely. Duplicate futures are
// considered once.
//
// On timeout the partition observed so far is returned together with an
// error whose cause is syncerr.ErrTimeout.
func Wait(fs []*Future, timeout time.Duration, returnWhen ReturnWhen) (DoneAndNotDone, error) {
	ctx, cancel := withTimeout(context.Background(), timeout)
	defer cancel()
	return WaitContext(ctx, fs, returnWhen)
}

// WaitContext is like Wait with the wait bounded by ctx.
func WaitContext(ctx context.Context, fs []*Future, returnWhen ReturnWhen) (DoneAndNotDone, error) {
	if returnWhen < FirstCompleted || returnWhen > AllCompleted {
		syncerr.Violation("futures.Wait", "invalid return condition %v", returnWhen)
	}

	fs = unique(fs)
	done := make(map[*Future]bool, len(fs))

	unlock := lockAll(fs)
	for _, f := range fs {
		if f.state.settled() {
			done[f] = true
		}
	}
	if satisfied(fs, done, returnWhen) {
		unlock()
		return partition(fs, done), nil
	}
	w := newWaiter(fs, returnWhen)
	for _, f := range fs {
		f.addWaiter(w)
	}
	unlock()

	posted := w.event().wait(ctx)
	for _, f := range fs {
		f.removeWaiter(w)
	}
	for _, f := range w.finishedFutures() {
		done[f] = true
	}

	res := partition(fs, done)
	if posted || w.event().isSet() {
		return res, nil
	}
	return res, waitError(ctx, len(res.NotDone), len(fs))
}

// AsCompleted returns an iterator over fs that yields each future as it
// completes, already completed futures first. If timeout elapses before
// every future has been yielded, the iterator yields a nil future with an
// error whose cause is syncerr.ErrTimeout and stops. A negative timeout
// (Forever) waits indefinitely. The clock starts when iteration begins.
//
//	for f, err := range futures.AsCompleted(fs, time.Second) {
//		if err != nil {
//			return err
//		}
//		use(f)
//	}
func AsCompleted(fs []*Future, timeout time.Duration) iter.Seq2[*Future, error] {
	return func(yield func(*Future, error) bool) {
		ctx, cancel := withTimeout(context.Background(), timeout)
		defer cancel()
		asCompleted(ctx, fs, yield)
	}
}

// AsCompletedContext is like AsCompleted with the iteration bounded by ctx.
func AsCompletedContext(ctx context.Context, fs []*Future) iter.Seq2[*Future, error] {
	return func(yield func(*Future, error) bool) {
		asCompleted(ctx, fs, yield)
	}
}

func asCompleted(ctx context.Context, fs []*Future, yield func(*Future, error) bool) {
	fs = unique(fs)

	var finished []*Future
	pending := make(map[*Future]bool, len(fs))

	w := newAsCompletedWaiter()
	unlock := lockAll(fs)
	for _, f := range fs {
		if f.state.settled() {
			finished = append(finished, f)
		} else {
			pending[f] = true
		}
		f.addWaiter(w)
	}
	unlock()

	defer func() {
		for _, f := range fs {
			f.removeWaiter(w)
		}
	}()

	for _, f := range finished {
		if !yield(f, nil) {
			return
		}
	}

	for len(pending) > 0 {
		if !w.event().wait(ctx) {
			yield(nil, waitError(ctx, len(pending), len(fs)))
			return
		}
		for _, f := range w.drain() {
			if !pending[f] {
				continue
			}
			delete(pending, f)
			if !yield(f, nil) {
				return
			}
		}
	}
}

// newWaiter builds the waiter for returnWhen. The futures' locks must be held.
func newWaiter(fs []*Future, returnWhen ReturnWhen) waiter {
	if returnWhen == FirstCompleted {
		return newFirstCompletedWaiter()
	}

	pending := 0
	for _, f := range fs {
		if !f.state.settled() {
			pending++
		}
	}
	return newAllCompletedWaiter(pending, returnWhen == FirstException)
}

// satisfied reports whether the settled futures already meet returnWhen.
// The futures' locks must be held.
func satisfied(fs []*Future, done map[*Future]bool, returnWhen ReturnWhen) bool {
	if len(done) == len(fs) {
		return true
	}
	switch returnWhen {
	case FirstCompleted:
		return len(done) > 0
	case FirstException:
		for f := range done {
			if f.state == Finished && f.err != nil {
				return true
			}
		}
	}
	return false
}

func partition(fs []*Future, done map[*Future]bool) DoneAndNotDone {
	var res DoneAndNotDone
	for _, f := range fs {
		if done[f] {
			res.Done = append(res.Done, f)
		} else {
			res.NotDone = append(res.NotDone, f)
		}
	}
	return res
}

func waitError(ctx context.Context, unfinished, total int) error {
	if ctx.Err() == context.DeadlineExceeded {
		return syncerr.Timeoutf("%d (of %d) futures unfinished", unfinished, total)
	}
	return errgo.NoteMask(ctx.Err(), fmt.Sprintf("%d (of %d) futures unfinished", unfinished, total), errgo.Any)
}

// unique drops repeated futures, keeping first occurrences in order.
func unique(fs []*Future) []*Future {
	seen := make(map[*Future]bool, len(fs))
	out := make([]*Future, 0, len(fs))
	for _, f := range fs {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// lockAll locks every future in ascending ID order and returns a function
// that unlocks them in reverse order.
func lockAll(fs []*Future) (unlock func()) {
	sorted := slices.Clone(fs)
	slices.SortFunc(sorted, func(a, b *Future) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})

	for _, f := range sorted {
		f.mu.Lock()
	}
	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			sorted[i].mu.Unlock()
		}
	}
}
