// Package logger provides leveled logging for catalogd.
// Debug and info messages are printed only in verbose mode (--verbose);
// warnings and errors are always printed. Output goes to stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(true, "[DEBUG] ", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(true, "[INFO] ", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	write(false, "[WARN] ", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	write(false, "[ERROR] ", format, args...)
}

// Benchmark starts timing an operation. The returned func logs the
// message with the elapsed time at info level:
//
//	done := logger.Benchmark("Compiled catalog for %s", node)
//	defer done()
func Benchmark(format string, args ...any) func() {
	start := now()
	msg := fmt.Sprintf(format, args...)
	return func() {
		Info("%s in %.2f seconds", msg, now().Sub(start).Seconds())
	}
}

func write(verboseOnly bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verboseOnly && !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
