// Package syncerr defines the error taxonomy shared by the condvar and futures packages.
//
// There are two families:
//
//   - Protocol misuse (waiting without holding the lock, over-releasing a
//     semaphore, unbalanced reader/writer calls, illegal future transitions).
//     These are caller bugs and are raised with panic(*ProtocolError).
//   - Expected outcomes (a wait timed out, a future was cancelled, an executor
//     has shut down). These are returned as errors whose errgo cause is one of
//     the sentinel values below, so callers can branch on them with the Is*
//     helpers without ever swallowing a protocol panic.
package syncerr

import (
	"fmt"

	"gopkg.in/errgo.v1"
)

var (
	// ErrTimeout is the cause of errors returned when a deadline elapses
	// before the awaited outcome.
	ErrTimeout = errgo.New("timed out")

	// ErrCancelled is the cause of errors returned when a future was cancelled.
	ErrCancelled = errgo.New("cancelled")

	// ErrInvalidArgument is the cause of construction-time validation errors.
	ErrInvalidArgument = errgo.New("invalid argument")

	// ErrShutdown is the cause of errors returned by an executor that no
	// longer accepts work.
	ErrShutdown = errgo.New("executor is shut down")
)

// Timeoutf returns an error with cause ErrTimeout.
func Timeoutf(format string, args ...any) error {
	return errgo.WithCausef(nil, ErrTimeout, format, args...)
}

// Cancelledf returns an error with cause ErrCancelled.
func Cancelledf(format string, args ...any) error {
	return errgo.WithCausef(nil, ErrCancelled, format, args...)
}

// InvalidArgumentf returns an error with cause ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return errgo.WithCausef(nil, ErrInvalidArgument, format, args...)
}

// Shutdownf returns an error with cause ErrShutdown.
func Shutdownf(format string, args ...any) error {
	return errgo.WithCausef(nil, ErrShutdown, format, args...)
}

// IsTimeout reports whether err was caused by an elapsed deadline.
func IsTimeout(err error) bool { return err != nil && errgo.Cause(err) == ErrTimeout }

// IsCancelled reports whether err was caused by a cancelled future.
func IsCancelled(err error) bool { return err != nil && errgo.Cause(err) == ErrCancelled }

// IsInvalidArgument reports whether err was caused by a rejected constructor argument.
func IsInvalidArgument(err error) bool {
	return err != nil && errgo.Cause(err) == ErrInvalidArgument
}

// IsShutdown reports whether err was caused by submitting to a stopped executor.
func IsShutdown(err error) bool { return err != nil && errgo.Cause(err) == ErrShutdown }

// ProtocolError describes a broken acquire/release or in/out discipline.
//
// It is never returned; primitives panic with it so the misuse surfaces at
// the call site that caused it.
//
// Fields:
//   - Op: the operation that detected the misuse (e.g. "Condition.Wait")
//   - Message: what was wrong
type ProtocolError struct {
	Op      string
	Message string
}

// Error implements the error interface.
//
// Format: op: message
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Violation panics with a *ProtocolError for op.
func Violation(op, format string, args ...any) {
	panic(&ProtocolError{Op: op, Message: fmt.Sprintf(format, args...)})
}
