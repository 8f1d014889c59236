package futures

// State is the lifecycle position of a Future.
type State int

const (
	// Pending futures have not started running.
	Pending State = iota
	// Running futures have been claimed by a worker.
	Running
	// Cancelled futures were cancelled before running; waiters have not
	// been told yet.
	Cancelled
	// CancelledAndNotified futures were cancelled and their waiters told.
	CancelledAndNotified
	// Finished futures carry a result or an error.
	Finished
)

var stateNames = [...]string{
	Pending:              "pending",
	Running:              "running",
	Cancelled:            "cancelled",
	CancelledAndNotified: "cancelled",
	Finished:             "finished",
}

// String returns the lower-case state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) cancelled() bool {
	return s == Cancelled || s == CancelledAndNotified
}

// terminal reports whether no further transition except the cancellation
// notification can happen.
func (s State) terminal() bool {
	return s.cancelled() || s == Finished
}

// settled reports whether waiters count the future as done.
func (s State) settled() bool {
	return s == CancelledAndNotified || s == Finished
}
