package diag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is a single captured log record.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// String formats the entry for display.
func (e Entry) String() string {
	var lvl string
	switch {
	case e.Level >= slog.LevelError:
		lvl = "ERR"
	case e.Level >= slog.LevelWarn:
		lvl = "WRN"
	case e.Level >= slog.LevelInfo:
		lvl = "INF"
	default:
		lvl = "DBG"
	}
	return fmt.Sprintf("%s [%s] %s", e.Time.Format("15:04:05"), lvl, e.Message)
}

// Ring is a fixed-size circular buffer of log entries, safe for concurrent use.
type Ring struct {
	mu      sync.RWMutex
	entries []Entry
	index   int
	count   int
}

// NewRing creates a ring holding at most size entries.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = 1
	}
	return &Ring{entries: make([]Entry, size)}
}

// Add inserts e, overwriting the oldest entry when full.
func (r *Ring) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.index] = e
	r.index = (r.index + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
}

// Recent returns up to max entries, oldest first. max <= 0 returns all.
func (r *Ring) Recent(max int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.count
	if max > 0 && max < n {
		n = max
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		idx := (r.index - n + i + len(r.entries)) % len(r.entries)
		out[i] = r.entries[idx]
	}
	return out
}

// Len returns the number of entries held.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// RingHandler is a slog.Handler capturing records into a Ring.
type RingHandler struct {
	ring   *Ring
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewRingHandler creates a handler writing to ring.
func NewRingHandler(ring *Ring, level slog.Leveler) *RingHandler {
	return &RingHandler{ring: ring, level: level}
}

func (h *RingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *RingHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", h.qualify(a.Key), a.Value)
		return true
	})

	h.ring.Add(Entry{Time: r.Time, Level: r.Level, Message: b.String()})
	return nil
}

func (h *RingHandler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

// WithAttrs keys are qualified by the groups open at the time of the call.
func (h *RingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return &c
}

func (h *RingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}
