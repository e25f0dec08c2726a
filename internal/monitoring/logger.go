// Package monitoring holds the process-wide diagnostic logging seam.
package monitoring

import "log"

// Logf is the diagnostic logger shared by the stream, editor, and store
// packages. It defaults to log.Printf; SetLogger swaps it out, which tests use
// to capture or silence output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger rather than leaving Logf nil.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
