package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/kioskled/ledupdater/internal/api/models"
	"github.com/kioskled/ledupdater/internal/events"
)

// registerMetricsRoutes registers the kiosk stats SSE endpoint.
func (s *Server) registerMetricsRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "metrics-stream",
		Method:      http.MethodGet,
		Path:        "/api/metrics",
		Summary:     "Metrics Server-Sent Events Stream",
		Description: "Periodic per-kiosk cycle totals",
		Tags:        []string{"metrics"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"kiosk-stats": events.KioskStatsEvent{},
	}, func(ctx context.Context, input *models.StreamRequest, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribe := events.SubscribeToChannel[events.KioskStatsEvent](s.eventBus, eventCh)
		defer unsubscribe()

		pump(ctx, send, eventCh, forKiosk(input.Kiosk))
	})
}
