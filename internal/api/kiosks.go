package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kioskled/ledupdater/internal/api/models"
	"github.com/kioskled/ledupdater/internal/led"
	"github.com/kioskled/ledupdater/internal/metrics"
)

func (s *Server) registerKioskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-kiosks",
		Method:      http.MethodGet,
		Path:        "/api/kiosks",
		Summary:     "List Kiosks",
		Description: "List every kiosk driven by this process with its latest loop status",
		Tags:        []string{"kiosks"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.KioskListResponse, error) {
		var kiosks []led.Kiosk
		if s.options.Fleet != nil {
			kiosks = s.options.Fleet.Kiosks()
		}

		data := make([]models.KioskData, 0, len(kiosks))
		for _, k := range kiosks {
			data = append(data, s.kioskData(k))
		}
		return &models.KioskListResponse{
			Body: models.KioskListData{Kiosks: data, Count: len(data)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-kiosk",
		Method:      http.MethodGet,
		Path:        "/api/kiosks/{id}",
		Summary:     "Get Kiosk",
		Description: "Get one kiosk with its loop status and the content last sent to its sign",
		Tags:        []string{"kiosks"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *models.KioskRequest) (*models.KioskResponse, error) {
		if s.options.Fleet == nil {
			return nil, huma.Error404NotFound("Kiosk not found")
		}
		k, ok := s.options.Fleet.Kiosk(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("Kiosk not found")
		}
		frame, _ := s.options.Fleet.Frame(input.ID)
		return &models.KioskResponse{
			Body: models.KioskDetailData{
				KioskData: s.kioskData(k),
				Frame:     frame,
			},
		}, nil
	})
}

func (s *Server) kioskData(k led.Kiosk) models.KioskData {
	data := models.KioskData{
		Kiosk:  k,
		Status: led.KioskStatus{KioskID: k.ID, KioskName: k.DisplayName},
	}
	if s.options.Status != nil {
		if st, ok := s.options.Status.Get(k.ID); ok {
			data.Status = st
		}
	}
	if c := metrics.GetKioskCounters(k.ID); c != nil {
		data.Counters = models.KioskCounters{
			Cycles:   c.Cycles,
			Failures: c.Failures,
			Blanked:  c.Blanked,
		}
	}
	return data
}
