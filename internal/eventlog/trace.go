package eventlog

import (
	"os"
	"sync/atomic"
)

var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("CINEFIND_TRACE") != "")
}

// TraceEnabled reports whether per-message tracing is on (CINEFIND_TRACE set).
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// setTraceEnabled is a test hook.
func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
