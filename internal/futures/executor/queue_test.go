package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(n int) []*workItem {
	out := make([]*workItem, n)
	for i := range out {
		out[i] = &workItem{}
	}
	return out
}

func TestQueueFIFO(t *testing.T) {
	var q queue
	assert.Nil(t, q.Pop())

	in := items(3)
	for _, it := range in {
		q.Push(it)
	}
	assert.Equal(t, 3, q.Len())
	for _, want := range in {
		assert.Same(t, want, q.Pop())
	}
	assert.Zero(t, q.Len())
	assert.Nil(t, q.Pop())
}

// TestQueueExpandWrapped grows the buffer while the live range wraps around.
func TestQueueExpandWrapped(t *testing.T) {
	var q queue
	in := items(20)

	for _, it := range in[:8] {
		q.Push(it)
	}
	require.Len(t, q.elems, 8)
	for _, want := range in[:5] {
		assert.Same(t, want, q.Pop())
	}
	// pushi wraps to the front before the buffer is full again.
	for _, it := range in[8:20] {
		q.Push(it)
	}
	assert.Equal(t, 15, q.Len())
	assert.Greater(t, len(q.elems), 8)

	for _, want := range in[5:] {
		assert.Same(t, want, q.Pop())
	}
	assert.Zero(t, q.Len())
}
