package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// LogCallback receives every entry recorded in the history.
type LogCallback func(entry LogEntry)

// historyHandler records into the package history and forwards each entry
// to the registered LogCallback. Both are looked up per record, so
// handlers created before Initialize start recording once it runs.
type historyHandler struct {
	level slog.Leveler
	scope scope
}

func newHistoryHandler(level slog.Leveler) *historyHandler {
	return &historyHandler{level: level}
}

func (h *historyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *historyHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Timestamp: r.Time,
		Level:     levelName(r.Level),
		Module:    "app",
		Message:   r.Message,
	}

	h.scope.each(r, func(a slog.Attr) {
		walk(a, nil, func(path []string, v slog.Value) {
			key := strings.Join(path, ".")
			switch key {
			case "module":
				entry.Module = v.String()
				return
			case "kiosk_id":
				entry.KioskID = v.String()
				return
			}
			if entry.Attributes == nil {
				entry.Attributes = make(map[string]any)
			}
			entry.Attributes[key] = plainValue(v)
		})
	})

	if rec := Recent(); rec != nil {
		rec.Append(entry)
	}
	if cb := currentCallback(); cb != nil {
		cb(entry)
	}
	return nil
}

func (h *historyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &historyHandler{level: h.level, scope: h.scope.withAttrs(attrs)}
}

func (h *historyHandler) WithGroup(name string) slog.Handler {
	return &historyHandler{level: h.level, scope: h.scope.withGroup(name)}
}

// plainValue converts v to something that encodes cleanly as JSON.
func plainValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.Any()
}
