// Package logger provides verbose logging for the CiteTrack CLI.
// Debug, Info and Warn messages are only printed when verbose mode is
// enabled via the --verbose flag. Error messages are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
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

func write(always bool, level, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !always && !verbose {
		return
	}
	fmt.Fprintf(output, "["+level+"] "+prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(false, "DEBUG", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(false, "INFO", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write(false, "WARN", "", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	write(true, "ERROR", "", format, args...)
}

// Logger prefixes every message with a component name.
type Logger struct {
	prefix string
}

// Scope returns a logger whose messages are prefixed with "name: ".
func Scope(name string) Logger {
	return Logger{prefix: name + ": "}
}

// Debug prints a scoped debug message if verbose mode is enabled.
func (l Logger) Debug(format string, args ...any) {
	write(false, "DEBUG", l.prefix, format, args...)
}

// Info prints a scoped informational message if verbose mode is enabled.
func (l Logger) Info(format string, args ...any) {
	write(false, "INFO", l.prefix, format, args...)
}

// Warn prints a scoped warning if verbose mode is enabled.
func (l Logger) Warn(format string, args ...any) {
	write(false, "WARN", l.prefix, format, args...)
}

// Error prints a scoped error regardless of verbose mode.
func (l Logger) Error(format string, args ...any) {
	write(true, "ERROR", l.prefix, format, args...)
}
