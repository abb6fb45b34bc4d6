package common

import (
	"runtime"

	"github.com/devlights/gomy/output"
)

// Assert panics with msg if cond is false. Used at internal invariant
// checkpoints (e.g. the log manager's record-fits-buffer check) the way the
// teacher's SH_Assert guards its own invariants.
func Assert(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}

// DumpGoroutineStacks prints every goroutine's stack trace, used when an
// invariant violation is detected and the caller wants to see which
// goroutines were contending for a latch at the time.
func DumpGoroutineStacks(prefix string) {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	output.Stdoutl(prefix, string(buf[:n]))
}
