// Package monitoring holds the diagnostic logger shared by the engine and the
// preview application.
package monitoring

import (
	"log"
	"sync/atomic"
)

type logFunc func(format string, v ...interface{})

var (
	logger  atomic.Pointer[logFunc]
	verbose atomic.Bool
)

func init() {
	SetLogger(log.Printf)
}

// Logf writes through the package logger, log.Printf unless SetLogger
// replaced it. It is safe to call from any goroutine.
func Logf(format string, v ...interface{}) {
	(*logger.Load())(format, v...)
}

// SetLogger replaces the package logger and returns the previous one.
// Passing nil mutes it. It may be called while other goroutines log.
func SetLogger(f func(format string, v ...interface{})) func(format string, v ...interface{}) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	next := logFunc(f)
	prev := logger.Swap(&next)
	if prev == nil {
		return nil
	}
	return *prev
}

// Debugf logs only when verbose output has been enabled with SetVerbose.
func Debugf(format string, v ...interface{}) {
	if verbose.Load() {
		Logf(format, v...)
	}
}

// SetVerbose toggles Debugf output.
func SetVerbose(on bool) {
	verbose.Store(on)
}
