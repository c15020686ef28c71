package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kioskled/ledupdater/internal/api/models"
)

func (s *Server) registerBrightnessRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-brightness",
		Method:      http.MethodGet,
		Path:        "/api/brightness",
		Summary:     "Brightness",
		Description: "Get the brightness level last pushed to the fleet",
		Tags:        []string{"brightness"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.BrightnessResponse, error) {
		if s.options.Brightness == nil {
			return nil, huma.Error503ServiceUnavailable("Brightness loop not running")
		}
		return &models.BrightnessResponse{Body: s.options.Brightness.State()}, nil
	})
}
