// Package logsink provides the structured warning sink shared by the
// parser, USE-requirement evaluator, and resolver. It deliberately stays
// as small as golang-dep's own log.Logger (an io.Writer wrapper with a
// couple of formatting helpers) rather than adopting a full leveled
// logging framework.
package logsink

import (
	"fmt"
	"io"
	"sync"
)

// Field is a single key/value pair rendered "key=value" in a warning
// line, giving grep-able structure without a schema.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for constructing a Field.
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Logger wraps an io.Writer, serializing concurrent writers so a
// multi-goroutine caller doesn't interleave partial lines.
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a Logger writing to w. A nil w makes every Warn call a
// no-op, which is convenient for tests that don't care about warning
// text.
func New(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Warn emits a single warning line: msg followed by any fields.
func (l *Logger) Warn(msg string, fields ...Field) {
	if l == nil || l.w == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.w, "warning: ", msg)
	for _, f := range fields {
		fmt.Fprintf(l.w, " %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(l.w)
}

// Discard is a Logger that drops every message, for callers that want
// to opt out of warnings entirely without passing around a nil check.
var Discard = New(nil)
