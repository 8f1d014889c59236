package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func returnsWithin(d time.Duration, fn func()) bool {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}

// TestPostIsSticky verifies waits after Post never block.
func TestPostIsSticky(t *testing.T) {
	e := New()
	assert.False(t, e.IsPosted())

	e.Post()
	assert.True(t, e.IsPosted())
	for i := 0; i < 5; i++ {
		assert.True(t, returnsWithin(time.Second, e.Wait), "wait %d after Post blocked", i)
	}

	// Posting twice is harmless.
	e.Post()
	assert.True(t, e.IsPosted())
}

// TestClearBlocksAgain verifies Clear rearms the event until the next Post.
func TestClearBlocksAgain(t *testing.T) {
	e := New()
	e.Post()
	e.Clear()
	assert.False(t, e.IsPosted())

	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned after Clear without a Post")
	case <-time.After(50 * time.Millisecond):
	}

	e.Post()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Post did not release the waiter")
	}
}

// TestPostReleasesAllWaiters verifies one Post wakes every blocked goroutine.
func TestPostReleasesAllWaiters(t *testing.T) {
	e := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Wait()
		}()
	}

	time.Sleep(20 * time.Millisecond)
	e.Post()
	assert.True(t, returnsWithin(5*time.Second, wg.Wait))
}
