package log

import (
	"context"
	"log/slog"
	"sync"
)

// Entry is a record captured by Recorder.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]slog.Value
}

// Recorder is an slog.Handler that keeps every record in memory.
// Handlers derived through WithAttrs and WithGroup share the same storage.
type Recorder struct {
	store *entryStore
	attrs []slog.Attr
	group string
}

type entryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{store: &entryStore{}}
}

// Logger returns a logger writing into r.
func (r *Recorder) Logger() *slog.Logger {
	return slog.New(r)
}

// Enabled implements slog.Handler. Every level is recorded.
func (r *Recorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	e := Entry{
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   make(map[string]slog.Value, rec.NumAttrs()+len(r.attrs)),
	}
	for _, a := range r.attrs {
		e.Attrs[a.Key] = a.Value.Resolve()
	}
	rec.Attrs(func(a slog.Attr) bool {
		e.Attrs[r.key(a.Key)] = a.Value.Resolve()
		return true
	})

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, e)
	return nil
}

// WithAttrs implements slog.Handler.
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &Recorder{store: r.store, group: r.group}
	next.attrs = append(append(next.attrs, r.attrs...), qualify(r.group, attrs)...)
	return next
}

// WithGroup implements slog.Handler.
func (r *Recorder) WithGroup(name string) slog.Handler {
	return &Recorder{store: r.store, attrs: r.attrs, group: r.key(name)}
}

func (r *Recorder) key(k string) string {
	if r.group == "" {
		return k
	}
	return r.group + "." + k
}

func qualify(group string, attrs []slog.Attr) []slog.Attr {
	if group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: group + "." + a.Key, Value: a.Value}
	}
	return out
}

// Entries returns a copy of the captured records.
func (r *Recorder) Entries() []Entry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]Entry(nil), r.store.entries...)
}

// Find returns the captured records with the given message.
func (r *Recorder) Find(message string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Message == message {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many records at level carry message.
func (r *Recorder) Count(level slog.Level, message string) int {
	n := 0
	for _, e := range r.Find(message) {
		if e.Level == level {
			n++
		}
	}
	return n
}
