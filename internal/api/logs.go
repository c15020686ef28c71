package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/kioskled/ledupdater/internal/api/models"
	"github.com/kioskled/ledupdater/internal/events"
	"github.com/kioskled/ledupdater/internal/logging"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// ForwardLogs publishes every recorded log entry on bus for the live
// log stream.
func ForwardLogs(bus *events.Bus) {
	logging.SetLogCallback(func(entry logging.LogEntry) {
		bus.Publish(logEvent(entry))
	})
}

func logEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		KioskID:    entry.KioskID,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

// logFilter matches entries at or above level from module and kiosk.
// Empty criteria match everything.
func logFilter(level, module, kiosk string) func(logging.LogEntry) bool {
	minRank := levelRank[level]
	return func(e logging.LogEntry) bool {
		if levelRank[e.Level] < minRank {
			return false
		}
		if module != "" && e.Module != module {
			return false
		}
		return kiosk == "" || e.KioskID == kiosk
	}
}

// recentLogs returns the newest limit entries accepted by the request.
func recentLogs(history *logging.History, input *models.LogsRequest) []models.LogEntry {
	if history == nil {
		return []models.LogEntry{}
	}
	entries := history.Tail(input.Limit, logFilter(input.Level, input.Module, input.Kiosk))
	out := make([]models.LogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.LogEntry{
			Timestamp:  e.Timestamp.Format(time.RFC3339Nano),
			Level:      e.Level,
			Module:     e.Module,
			KioskID:    e.KioskID,
			Message:    e.Message,
			Attributes: e.Attributes,
		})
	}
	return out
}

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Get recent log entries from the in-memory history, optionally for one kiosk",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		out := recentLogs(logging.Recent(), input)
		return &models.LogsResponse{
			Body: models.LogsData{Entries: out, Count: len(out)},
		}, nil
	})
}

// registerLogStreamRoutes registers the log streaming SSE endpoint.
func (s *Server) registerLogStreamRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Replays recent logs first, then streams new ones.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, input *models.StreamRequest, send sse.Sender) {
		// Subscribe before replaying so nothing logged in between is lost.
		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		if history := logging.Recent(); history != nil {
			for _, entry := range history.Tail(0, logFilter("", "", input.Kiosk)) {
				if err := send.Data(logEvent(entry)); err != nil {
					return
				}
			}
		}

		var keep func(any) bool
		if input.Kiosk != "" {
			keep = func(ev any) bool { return kioskOf(ev) == input.Kiosk }
		}
		pump(ctx, send, eventCh, keep)
	})
}
