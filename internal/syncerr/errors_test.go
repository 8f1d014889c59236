package syncerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/errgo.v1"
)

// TestCausePredicates verifies each constructor is matched only by its own predicate.
func TestCausePredicates(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		timeout bool
		cancel  bool
		invalid bool
		stopped bool
	}{
		{name: "timeout", err: Timeoutf("waited %d ms", 10), timeout: true},
		{name: "cancelled", err: Cancelledf("future %d", 3), cancel: true},
		{name: "invalid", err: InvalidArgumentf("parties %d", 0), invalid: true},
		{name: "shutdown", err: Shutdownf("pool %q", "p"), stopped: true},
		{name: "unrelated", err: errgo.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.timeout, IsTimeout(tt.err))
			assert.Equal(t, tt.cancel, IsCancelled(tt.err))
			assert.Equal(t, tt.invalid, IsInvalidArgument(tt.err))
			assert.Equal(t, tt.stopped, IsShutdown(tt.err))
		})
	}
}

// TestCauseSurvivesNote verifies annotating an error keeps the cause reachable.
func TestCauseSurvivesNote(t *testing.T) {
	err := errgo.NoteMask(Timeoutf("inner"), "outer", errgo.Any)
	assert.True(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "outer")
}

// TestViolationPanics verifies Violation panics with a formatted *ProtocolError.
func TestViolationPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		perr, ok := r.(*ProtocolError)
		require.True(t, ok, "panic value %T", r)
		assert.Equal(t, "Semaphore.V", perr.Op)
		assert.Equal(t, "Semaphore.V: released 3 of 2 permits", perr.Error())
	}()
	Violation("Semaphore.V", "released %d of %d permits", 3, 2)
}
