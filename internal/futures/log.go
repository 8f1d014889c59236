package futures

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/kolkov/condsync/internal/stackdepot"
)

// ---------------------------------------------------------------------------
// Logging integration.

// Logger receives log output. *log.Logger satisfies it.
type Logger interface {
	Output(calldepth int, s string) error
}

var (
	logMu        sync.RWMutex
	globalLogger Logger = log.New(os.Stderr, "futures: ", log.LstdFlags)
	globalDebug  bool

	// callbackStacks deduplicates stacks of panicking done callbacks.
	callbackStacks = stackdepot.New()
)

// SetLogger sets where log messages are sent. A nil logger silences the package.
func SetLogger(logger Logger) {
	logMu.Lock()
	globalLogger = logger
	logMu.Unlock()
}

// SetDebug enables the delivery of debug messages to the logger.
func SetDebug(debug bool) {
	logMu.Lock()
	globalDebug = debug
	logMu.Unlock()
}

func output(debug bool, s string) {
	logMu.RLock()
	logger, enabled := globalLogger, !debug || globalDebug
	logMu.RUnlock()
	if logger != nil && enabled {
		_ = logger.Output(3, s)
	}
}

func logf(format string, v ...any) {
	output(false, fmt.Sprintf(format, v...))
}

func debugf(format string, v ...any) {
	output(true, fmt.Sprintf(format, v...))
}

// reportCallbackPanic logs a recovered done-callback panic. It must be
// called from the deferred function that recovered.
func reportCallbackPanic(f *Future, r any) {
	hash, first := callbackStacks.Capture(2)
	if first {
		logf("exception calling callback for %v: %v\n%s", f, r, callbackStacks.Get(hash).Format())
		return
	}
	logf("exception calling callback for %v: %v (stack %016x seen before)", f, r, hash)
}
