// Package testutil provides logging helpers for package tests.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a debug-level logger that writes through t.Log, so
// output only shows for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// Entry is one captured log record with its attributes flattened.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that keeps every record in memory.
type LogRecorder struct {
	mu      sync.Mutex
	entries []Entry
	attrs   []slog.Attr
	parent  *LogRecorder
}

// NewLogRecorder returns a logger and the recorder behind it.
func NewLogRecorder() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	return slog.New(rec), rec
}

func (r *LogRecorder) root() *LogRecorder {
	if r.parent != nil {
		return r.parent
	}
	return r
}

// Enabled implements slog.Handler; every level is recorded.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	e := Entry{Level: rec.Level, Message: rec.Message, Attrs: map[string]any{}}
	for _, a := range r.attrs {
		e.Attrs[a.Key] = a.Value.Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.Any()
		return true
	})

	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	root.entries = append(root.entries, e)
	return nil
}

// WithAttrs implements slog.Handler. Groups are not tracked.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{
		attrs:  append(append([]slog.Attr{}, r.attrs...), attrs...),
		parent: r.root(),
	}
}

// WithGroup implements slog.Handler.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Entries returns a copy of everything logged so far.
func (r *LogRecorder) Entries() []Entry {
	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	return append([]Entry(nil), root.entries...)
}

// Find returns the first entry with message msg.
func (r *LogRecorder) Find(msg string) (Entry, bool) {
	for _, e := range r.Entries() {
		if e.Message == msg {
			return e, true
		}
	}
	return Entry{}, false
}
