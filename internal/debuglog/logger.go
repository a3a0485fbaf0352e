// Package debuglog provides the file-backed debug log shared by reqforge components.
package debuglog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes timestamped debug lines. A Logger without a destination is a no-op,
// so components can always call Log without checking configuration.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
	f   *os.File
}

// New creates a logger appending to the file at path.
// If the path is empty, returns a no-op logger.
// Creates parent directories if they don't exist.
func New(path string) (*Logger, error) {
	if path == "" {
		return &Logger{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &Logger{out: f, f: f}
	l.Log("=== reqforge debug log started at %s ===", time.Now().Format(time.RFC3339))
	return l, nil
}

// NewWriter creates a logger writing to w. Used by tests and by --debug on stderr.
func NewWriter(w io.Writer) *Logger {
	return &Logger{out: w}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{}
}

// Log writes a timestamped message.
// If the logger is nil or has no destination, this is a no-op.
func (l *Logger) Log(format string, args ...interface{}) {
	if l == nil || l.out == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "[%s] %s\n", time.Now().Format("15:04:05.000"), msg)
	if l.f != nil {
		l.f.Sync()
	}
}

// Close closes the log file. Safe to call on nil or no-op loggers.
func (l *Logger) Close() error {
	if l == nil || l.f == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.f.Close()
}
