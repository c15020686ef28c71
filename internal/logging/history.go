package logging

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// LogEntry is one record kept in the in-memory history.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Module    string    `json:"module"`
	// KioskID is lifted out of the kiosk_id attribute so per-sign logs
	// can be filtered without scanning attributes.
	KioskID    string         `json:"kiosk_id,omitempty"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// History keeps the most recent entries in a fixed-size ring.
type History struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
}

// NewHistory creates a history holding up to capacity entries.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{entries: make([]LogEntry, capacity)}
}

// Append stores entry, dropping the oldest one when the ring is full.
func (h *History) Append(entry LogEntry) {
	h.mu.Lock()
	h.entries[h.next] = entry
	h.next++
	if h.next == len(h.entries) {
		h.next = 0
		h.full = true
	}
	h.mu.Unlock()
}

// Entries returns every stored entry, oldest first.
func (h *History) Entries() []LogEntry {
	return h.Tail(0, nil)
}

// Tail returns up to n of the newest entries accepted by match, oldest
// first. n <= 0 means no limit and a nil match accepts everything.
func (h *History) Tail(n int, match func(LogEntry) bool) []LogEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []LogEntry
	for i := range h.len() {
		// walk newest to oldest so the limit keeps the latest entries
		idx := (h.next - 1 - i + len(h.entries)) % len(h.entries)
		e := h.entries[idx]
		if match != nil && !match(e) {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) == n {
			break
		}
	}
	slices.Reverse(out)
	return out
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.len()
}

func (h *History) len() int {
	if h.full {
		return len(h.entries)
	}
	return h.next
}

// FormatLogLine renders an entry as a single text line for the log stream.
func FormatLogLine(entry LogEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s] [%s] %s",
		entry.Timestamp.Format(time.RFC3339Nano),
		strings.ToUpper(entry.Level),
		entry.Module,
		entry.Message)

	if entry.KioskID != "" {
		sb.WriteString(" kiosk_id=")
		sb.WriteString(entry.KioskID)
	}
	for _, k := range slices.Sorted(maps.Keys(entry.Attributes)) {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Attributes[k])
	}
	return sb.String()
}
