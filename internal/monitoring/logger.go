// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import "log"

// Logf is the shared diagnostic logger for the engine. It defaults to
// log.Printf; binaries and tests may swap or silence it via SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger installs f as the package logger. A nil f installs a no-op
// logger, which mutes all engine diagnostics.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
