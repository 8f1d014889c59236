package futures

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/condsync/internal/syncerr"
)

func newFutures(n int) []*Future {
	fs := make([]*Future, n)
	for i := range fs {
		fs[i] = NewFuture()
	}
	return fs
}

func cancelled() *Future {
	f := NewFuture()
	f.Cancel()
	f.SetRunningOrNotifyCancel()
	return f
}

func waiterCount(f *Future) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

func assertNoWaiters(t *testing.T, fs []*Future) {
	t.Helper()
	for _, f := range fs {
		assert.Zero(t, waiterCount(f), "future %d still has waiters", f.ID())
	}
}

// TestWaitFirstCompleted walks through two futures where one finishes.
func TestWaitFirstCompleted(t *testing.T) {
	fs := newFutures(2)
	f1, f2 := fs[0], fs[1]

	go func() {
		time.Sleep(20 * time.Millisecond)
		f1.SetResult(1)
	}()

	res, err := Wait(fs, 5*time.Second, FirstCompleted)
	require.NoError(t, err)
	assert.Equal(t, []*Future{f1}, res.Done)
	assert.Equal(t, []*Future{f2}, res.NotDone)
	assertNoWaiters(t, fs)
}

// TestWaitReturnsImmediatelyWhenSatisfied verifies no waiter is installed for settled input.
func TestWaitReturnsImmediatelyWhenSatisfied(t *testing.T) {
	done := NewFuture()
	done.SetResult(nil)
	failed := NewFuture()
	failed.SetException(errors.New("bad"))
	pending := NewFuture()

	tests := []struct {
		name       string
		fs         []*Future
		returnWhen ReturnWhen
		wantDone   int
	}{
		{name: "empty", fs: nil, returnWhen: AllCompleted, wantDone: 0},
		{name: "first completed", fs: []*Future{pending, done}, returnWhen: FirstCompleted, wantDone: 1},
		{name: "first exception", fs: []*Future{pending, failed}, returnWhen: FirstException, wantDone: 1},
		{name: "all completed", fs: []*Future{done, failed, cancelled()}, returnWhen: AllCompleted, wantDone: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Wait(tt.fs, 0, tt.returnWhen)
			require.NoError(t, err)
			assert.Len(t, res.Done, tt.wantDone)
			assert.Len(t, res.NotDone, len(tt.fs)-tt.wantDone)
			assertNoWaiters(t, tt.fs)
		})
	}
}

// TestWaitAllCompleted verifies the wait lasts until the last future settles.
func TestWaitAllCompleted(t *testing.T) {
	fs := newFutures(4)

	go func() {
		fs[0].SetResult(0)
		fs[1].SetException(errors.New("ignored until the end"))
		fs[2].Cancel()
		fs[2].SetRunningOrNotifyCancel()
		time.Sleep(30 * time.Millisecond)
		fs[3].SetResult(3)
	}()

	res, err := Wait(fs, 5*time.Second, AllCompleted)
	require.NoError(t, err)
	assert.Equal(t, fs, res.Done)
	assert.Empty(t, res.NotDone)
	assertNoWaiters(t, fs)
}

// TestWaitFirstException verifies fail-fast on the first error.
func TestWaitFirstException(t *testing.T) {
	fs := newFutures(3)

	go func() {
		fs[0].SetResult("fine")
		time.Sleep(10 * time.Millisecond)
		fs[1].SetException(errors.New("bad"))
	}()

	res, err := Wait(fs, 5*time.Second, FirstException)
	require.NoError(t, err)
	assert.Equal(t, []*Future{fs[0], fs[1]}, res.Done)
	assert.Equal(t, []*Future{fs[2]}, res.NotDone)
}

// TestWaitFirstExceptionWithoutErrors falls back to waiting for all.
func TestWaitFirstExceptionWithoutErrors(t *testing.T) {
	fs := newFutures(2)
	go func() {
		fs[0].SetResult(1)
		time.Sleep(10 * time.Millisecond)
		fs[1].SetResult(2)
	}()

	res, err := Wait(fs, 5*time.Second, FirstException)
	require.NoError(t, err)
	assert.Len(t, res.Done, 2)
}

// TestWaitTimeout verifies the partial partition and a timeout error.
func TestWaitTimeout(t *testing.T) {
	fs := newFutures(3)
	fs[0].SetResult(nil)

	res, err := Wait(fs, 20*time.Millisecond, AllCompleted)
	assert.True(t, syncerr.IsTimeout(err), "got %v", err)
	assert.Contains(t, err.Error(), "2 (of 3) futures unfinished")
	assert.Equal(t, []*Future{fs[0]}, res.Done)
	assert.Equal(t, []*Future{fs[1], fs[2]}, res.NotDone)
	assertNoWaiters(t, fs)
}

// TestWaitIgnoresUnnotifiedCancel verifies waiters learn of a cancel only through the notification.
func TestWaitIgnoresUnnotifiedCancel(t *testing.T) {
	f := NewFuture()
	f.Cancel()

	res, err := Wait([]*Future{f}, 10*time.Millisecond, FirstCompleted)
	assert.True(t, syncerr.IsTimeout(err))
	assert.Empty(t, res.Done)

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.SetRunningOrNotifyCancel()
	}()
	res, err = Wait([]*Future{f}, 5*time.Second, FirstCompleted)
	require.NoError(t, err)
	assert.Equal(t, []*Future{f}, res.Done)
}

// TestWaitDeduplicates verifies a future passed twice counts once.
func TestWaitDeduplicates(t *testing.T) {
	f := NewFuture()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.SetResult(1)
	}()

	res, err := Wait([]*Future{f, f, f}, 5*time.Second, AllCompleted)
	require.NoError(t, err)
	assert.Equal(t, []*Future{f}, res.Done)
}

// TestWaitInvalidReturnWhen verifies an unknown condition is misuse.
func TestWaitInvalidReturnWhen(t *testing.T) {
	requireProtocolPanic(t, "futures.Wait", func() {
		_, _ = Wait(newFutures(1), 0, ReturnWhen(9))
	})
	assert.Equal(t, "ReturnWhen(9)", ReturnWhen(9).String())
	assert.Equal(t, "FirstException", FirstException.String())
}

// TestConcurrentOverlappingWaits verifies waits over overlapping sets in different orders never deadlock.
func TestConcurrentOverlappingWaits(t *testing.T) {
	fs := newFutures(6)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			set := make([]*Future, len(fs))
			for i := range fs {
				set[i] = fs[(i*(g+1)+g)%len(fs)]
			}
			_, err := Wait(set, 5*time.Second, AllCompleted)
			assert.NoError(t, err)
		}(g)
	}

	for i, f := range fs {
		time.Sleep(time.Millisecond)
		f.SetResult(i)
	}
	wg.Wait()
	assertNoWaiters(t, fs)
}

// TestAsCompleted verifies finished futures come first, then completion order.
func TestAsCompleted(t *testing.T) {
	fs := newFutures(4)
	fs[2].SetResult("already")

	go func() {
		for _, i := range []int{3, 0, 1} {
			time.Sleep(10 * time.Millisecond)
			fs[i].SetResult(i)
		}
	}()

	var got []*Future
	for f, err := range AsCompleted(fs, 5*time.Second) {
		require.NoError(t, err)
		got = append(got, f)
	}

	assert.Equal(t, []*Future{fs[2], fs[3], fs[0], fs[1]}, got)
	assertNoWaiters(t, fs)
}

// TestAsCompletedTimeout verifies the iterator reports unfinished futures and stops.
func TestAsCompletedTimeout(t *testing.T) {
	fs := newFutures(3)
	fs[1].SetResult(nil)

	var got []*Future
	var errs []error
	for f, err := range AsCompleted(fs, 20*time.Millisecond) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		got = append(got, f)
	}

	assert.Equal(t, []*Future{fs[1]}, got)
	require.Len(t, errs, 1)
	assert.True(t, syncerr.IsTimeout(errs[0]))
	assert.Contains(t, errs[0].Error(), "2 (of 3) futures unfinished")
	assertNoWaiters(t, fs)
}

// TestAsCompletedEarlyBreak verifies abandoning the iteration deregisters the waiter.
func TestAsCompletedEarlyBreak(t *testing.T) {
	fs := newFutures(3)
	go func() {
		time.Sleep(10 * time.Millisecond)
		fs[0].SetResult(0)
	}()

	for f, err := range AsCompleted(fs, 5*time.Second) {
		require.NoError(t, err)
		assert.Same(t, fs[0], f)
		break
	}
	assertNoWaiters(t, fs)

	// Completing the rest after the break reaches nobody.
	fs[1].SetResult(1)
	fs[2].SetException(errors.New("late"))
}

// TestAsCompletedIncludesCancelled verifies notified cancellations are yielded.
func TestAsCompletedIncludesCancelled(t *testing.T) {
	f := NewFuture()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Cancel()
		f.SetRunningOrNotifyCancel()
	}()

	n := 0
	for got, err := range AsCompleted([]*Future{f, f}, 5*time.Second) {
		require.NoError(t, err)
		assert.True(t, got.Cancelled())
		n++
	}
	assert.Equal(t, 1, n)
}
