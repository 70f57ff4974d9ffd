package logger

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/arloliu/subpoll/types"
)

// Entry is one captured log record.
type Entry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// TestLogger writes through t.Logf and keeps every record so tests can assert
// on diagnostics such as the "reason" of a rejected envelope.
type TestLogger struct {
	t *testing.T

	mu      sync.Mutex
	entries []Entry
}

var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a test logger bound to t.
func NewTest(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

// Debug logs a debug-level message with optional key-value pairs.
func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.log("DEBUG", msg, keysAndValues)
}

// Info logs an info-level message with optional key-value pairs.
func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.log("INFO", msg, keysAndValues)
}

// Warn logs a warning-level message with optional key-value pairs.
func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.log("WARN", msg, keysAndValues)
}

// Error logs an error-level message with optional key-value pairs.
func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.log("ERROR", msg, keysAndValues)
}

// Fatal records the message and fails the test.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.record("FATAL", msg, keysAndValues)
	l.t.Fatalf("FATAL: %s %s", msg, formatKeyValues(keysAndValues))
}

// Entries returns a copy of the captured records.
func (l *TestLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]Entry(nil), l.entries...)
}

// Find returns the first record with the given level and message.
func (l *TestLogger) Find(level, msg string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.Level == level && e.Msg == msg {
			return e, true
		}
	}

	return Entry{}, false
}

func (l *TestLogger) log(level, msg string, keysAndValues []any) {
	l.record(level, msg, keysAndValues)
	l.t.Logf("%s: %s %s", level, msg, formatKeyValues(keysAndValues))
}

func (l *TestLogger) record(level, msg string, keysAndValues []any) {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Fields: fields})
	l.mu.Unlock()
}

// formatKeyValues renders key-value pairs as "k=v " pairs.
func formatKeyValues(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, "%v=%v ", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, "%v=<missing> ", keysAndValues[i])
		}
	}

	return sb.String()
}
