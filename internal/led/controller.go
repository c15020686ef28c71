// Package led drives the kiosk LED signs: one orchestration loop per
// kiosk decides what each sign shows, and a fleet-wide brightness loop
// follows the transit agency's dark mode switch.
package led

import (
	"context"

	"github.com/kioskled/ledupdater/internal/display"
)

// Kiosk is one sign location from the kiosk directory.
type Kiosk struct {
	ID          string `json:"id" example:"b1f0c1" doc:"Kiosk identifier"`
	StopID      string `json:"stop_id" example:"IT" doc:"Transit stop the kiosk serves"`
	DisplayName string `json:"display_name" example:"Illinois Terminal" doc:"Human-readable kiosk name"`
	SignAddress string `json:"sign_address" example:"10.0.4.21" doc:"Network address of the LED sign controller"`
}

// Controller abstracts the sign controller attached to a kiosk.
// Implementations are owned by a single loop and need not be safe for
// concurrent use.
type Controller interface {
	// RefreshTimer writes the current time into the sign's keep-alive
	// data item so the sign knows its content is fresh.
	RefreshTimer(ctx context.Context) error

	// UpdateDataItems sets the named data items in one round trip.
	UpdateDataItems(ctx context.Context, items map[string]string) error

	// EnsureLayoutEnabled enables layout and disables every other
	// layout the sign knows about.
	EnsureLayoutEnabled(ctx context.Context, layout string) error

	// SetBrightness sets the sign brightness (1..127).
	SetBrightness(ctx context.Context, level int) error
}

// Factory builds a Controller for the sign at address.
type Factory func(address string) Controller

// Telemetry is the realtime data source a kiosk loop reads from.
type Telemetry interface {
	Departures(ctx context.Context, stopID, kioskID string) ([]display.Departure, error)
	ActiveMessages(ctx context.Context) ([]display.GeneralMessage, error)
	LogHeartbeat(ctx context.Context, kioskID string) error
}

// DarkModeSource reports whether signs should run at their dark level.
type DarkModeSource interface {
	DarkMode(ctx context.Context) (bool, error)
}

// Directory lists the kiosks whose signs this process drives.
type Directory interface {
	ListKiosks(ctx context.Context) ([]Kiosk, error)
}
