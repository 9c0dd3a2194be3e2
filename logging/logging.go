// Package logging is the daemon's file logger. It mirrors the marker
// convention persist/log_test.go exercises against the teacher's (missing
// from the copied tree) persist.NewFileLogger: every logger writes a
// "STARTUP" line on open and a "SHUTDOWN" line on Close, with CRITICAL
// lines flagged distinctly so an operator grepping the file can find them
// immediately.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/uqoin/uqoin/build"
)

// Logger wraps the standard library logger with the STARTUP/SHUTDOWN/
// CRITICAL markers the teacher's persist package uses.
type Logger struct {
	*log.Logger
	mu     sync.Mutex
	closer io.Closer
}

// New creates a Logger that writes to the file at path, appending if it
// already exists, and immediately writes a STARTUP line.
func New(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}
	l := &Logger{
		Logger: log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile|log.LUTC),
		closer: f,
	}
	l.Println("STARTUP: uqoind", build.Version.String(), "is starting.")
	return l, nil
}

// Critical logs a CRITICAL line. It does not terminate the process — call
// build.Critical for that; this only records the fact for the operator.
func (l *Logger) Critical(v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Println(append([]interface{}{"CRITICAL:"}, v...)...)
}

// Close writes a SHUTDOWN line and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Println("SHUTDOWN: uqoind has stopped.")
	return l.closer.Close()
}
