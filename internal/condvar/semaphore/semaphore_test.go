package semaphore

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/condsync/internal/syncerr"
)

// TestNewRejectsNonPositive verifies construction-time validation.
func TestNewRejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -3} {
		s, err := New(n)
		assert.Nil(t, s)
		assert.True(t, syncerr.IsInvalidArgument(err), "initial=%d: %v", n, err)
	}
}

// TestOverReleasePanics verifies the (M+1)-th V without a P is rejected.
func TestOverReleasePanics(t *testing.T) {
	for _, m := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("max=%d", m), func(t *testing.T) {
			s, err := New(m)
			require.NoError(t, err)

			for i := 0; i < m; i++ {
				s.P()
			}
			for i := 0; i < m; i++ {
				s.V()
			}
			assert.Equal(t, m, s.Count())

			defer func() {
				_, ok := recover().(*syncerr.ProtocolError)
				assert.True(t, ok, "expected *syncerr.ProtocolError panic")
				assert.Equal(t, m, s.Count(), "failed V must not change the count")
			}()
			s.V()
		})
	}
}

// TestThirdAcquirerBlocks walks through two permits shared by three goroutines.
func TestThirdAcquirerBlocks(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)

	s.P()
	s.P()
	assert.Zero(t, s.Count())

	acquired := make(chan struct{})
	go func() {
		s.P()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("third P returned without a V")
	case <-time.After(50 * time.Millisecond):
	}

	s.V()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("V did not release the blocked P")
	}
	assert.Zero(t, s.Count())
}

// TestBoundsUnderContention verifies at most M holders exist at any time.
func TestBoundsUnderContention(t *testing.T) {
	for _, m := range []int{1, 3} {
		t.Run(fmt.Sprintf("max=%d", m), func(t *testing.T) {
			s, err := New(m)
			require.NoError(t, err)

			var holders, peak atomic.Int32
			var wg sync.WaitGroup
			for g := 0; g < 12; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						s.P()
						n := holders.Add(1)
						for {
							p := peak.Load()
							if n <= p || peak.CompareAndSwap(p, n) {
								break
							}
						}
						holders.Add(-1)
						s.V()
					}
				}()
			}
			wg.Wait()

			assert.LessOrEqual(t, peak.Load(), int32(m))
			assert.Equal(t, m, s.Count())
			assert.Equal(t, m, s.MaxCount())
		})
	}
}
