// Package stackdepot stores captured stack traces deduplicated by hash.
//
// The futures package uses a Depot to report panicking done callbacks: the
// first panic from a given call stack is logged with its frames, repeats
// are logged by hash only, so a callback that fails on every completion
// does not flood the log.
//
// Usage:
//
//	d := stackdepot.New()
//	hash, first := d.Capture(1)
//	if first {
//		fmt.Print(d.Get(hash).Format())
//	}
package stackdepot

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"
)

// MaxFrames is the maximum number of stack frames captured per trace.
const MaxFrames = 16

// StackTrace is a fixed-size captured stack.
type StackTrace struct {
	PC    [MaxFrames]uintptr
	count atomic.Int64
}

// Depot deduplicates stack traces by FNV-1a hash of their program counters.
//
// Thread Safety: all methods are safe for concurrent use.
type Depot struct {
	stacks sync.Map // uint64 (hash) → *StackTrace
}

// New returns an empty Depot.
func New() *Depot {
	return &Depot{}
}

// Capture records the calling goroutine's stack, skipping skip frames above
// Capture's caller, and returns its hash. first reports whether this is the
// first time the stack was seen.
//
// Called from a deferred recover, the captured stack includes the frames
// that panicked.
func (d *Depot) Capture(skip int) (hash uint64, first bool) {
	var pcs [MaxFrames]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return 0, false
	}

	hash = hashStack(pcs[:n])

	trace := &StackTrace{PC: pcs}
	val, loaded := d.stacks.LoadOrStore(hash, trace)
	val.(*StackTrace).count.Add(1)
	return hash, !loaded
}

// Get returns the trace stored under hash, or nil.
func (d *Depot) Get(hash uint64) *StackTrace {
	if hash == 0 {
		return nil
	}
	val, ok := d.stacks.Load(hash)
	if !ok {
		return nil
	}
	return val.(*StackTrace)
}

// Stats returns the number of unique stacks and the total number of captures.
func (d *Depot) Stats() (unique int, captures int64) {
	d.stacks.Range(func(_, v any) bool {
		unique++
		captures += v.(*StackTrace).count.Load()
		return true
	})
	return unique, captures
}

// Count returns how many times the trace was captured.
func (st *StackTrace) Count() int64 {
	return st.count.Load()
}

// hashStack computes the FNV-1a hash of program counters.
func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	for _, pc := range pcs {
		//nolint:gosec // G103: reading the PC value as bytes for hashing
		pcBytes := (*[8]byte)(unsafe.Pointer(&pc))[:]
		_, _ = h.Write(pcBytes)
	}
	return h.Sum64()
}

// Format renders the trace one function per line followed by its file:line,
// skipping runtime frames:
//
//	main.worker()
//	    /path/to/file.go:45
func (st *StackTrace) Format() string {
	if st == nil {
		return "  <unknown>\n"
	}

	frames := runtime.CallersFrames(st.PC[:])

	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}

		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&buf, "  %s()\n", frame.Function)
			fmt.Fprintf(&buf, "      %s:%d\n", frame.File, frame.Line)
		}

		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}
