// Package logging is the run transcript: every line goes to the console and to
// a log file, so a failed publish can be reconstructed after the fact.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// timestampLayout is ISO-8601 in UTC, millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Log writes leveled lines to all configured sinks.  Writes are serialised
// with a mutex so console and file output stay interleaved consistently.
type Log struct {
	mu    sync.Mutex
	sinks []io.Writer
	file  *os.File
}

// New opens (or creates) logPath and returns a Log writing to both stdout and
// that file.  Parent directories are created as needed.
func New(logPath string) (*Log, error) {
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("logging: couldn't create log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("logging: couldn't open log file %s: %w", logPath, err)
	}

	return &Log{
		sinks: []io.Writer{os.Stdout, f},
		file:  f,
	}, nil
}

// NewWithWriters returns a Log writing only to the given sinks.  Handy for
// tests that want to inspect the transcript.
func NewWithWriters(sinks ...io.Writer) *Log {
	return &Log{sinks: sinks}
}

// DefaultPath returns a timestamped log file location under logs/.
func DefaultPath() string {
	stamp := time.Now().UTC().Format("20060102-150405")
	return filepath.Join("logs", fmt.Sprintf("publish-%s.log", stamp))
}

// Close flushes and closes the underlying log file, if there is one.
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("logging: couldn't close log file: %w", err)
	}
	return nil
}

func (l *Log) Infof(format string, args ...any)  { l.write("INFO", format, args...) }
func (l *Log) Warnf(format string, args ...any)  { l.write("WARN", format, args...) }
func (l *Log) Errorf(format string, args ...any) { l.write("ERROR", format, args...) }

func (l *Log) write(level string, format string, args ...any) {
	line := fmt.Sprintf("%s [%s] %s\n",
		time.Now().UTC().Format(timestampLayout),
		level,
		fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, sink := range l.sinks {
		// A broken sink shouldn't take down the run; the other sinks still
		// get the line.
		_, _ = io.WriteString(sink, line)
	}
}
