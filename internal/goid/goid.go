// Package goid identifies the calling goroutine.
//
// The ID is read from the header line runtime.Stack writes for the
// current goroutine ("goroutine 123 [running]:"). It is portable across
// architectures and Go versions at the cost of a stack dump per call, so
// it belongs on lock paths that are already going to block or panic, not
// in tight loops.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// Current returns the ID of the calling goroutine. IDs are positive; 0
// means the header could not be parsed.
func Current() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse extracts the ID from a runtime.Stack header.
func parse(buf []byte) int64 {
	if !bytes.HasPrefix(buf, prefix) {
		return 0
	}
	buf = buf[len(prefix):]
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		end = len(buf)
	}
	id, err := strconv.ParseInt(string(buf[:end]), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
