package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/kioskled/ledupdater/internal/api/models"
	"github.com/kioskled/ledupdater/internal/events"
)

// registerSSERoutes registers the sign activity event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of sign cycles, blanking, loop state and brightness changes. Pass kiosk to follow one sign; brightness changes are always sent.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"sign-cycle":         events.SignCycleEvent{},
		"sign-blanked":       events.SignBlankedEvent{},
		"kiosk-state":        events.KioskLoopStateEvent{},
		"brightness-changed": events.BrightnessChangedEvent{},
	}, func(ctx context.Context, input *models.StreamRequest, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.SignCycleEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SignBlankedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.KioskLoopStateEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.BrightnessChangedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		pump(ctx, send, eventCh, forKiosk(input.Kiosk))
	})
}
