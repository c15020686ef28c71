package events

// Event type constants for kelindar/event.
const (
	TypeSignCycle uint32 = iota + 1
	TypeSignBlanked
	TypeKioskLoopState
	TypeBrightnessChanged
	TypeKioskStats
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SignCycleEvent is published after every decision cycle that reached
// the presenter.
type SignCycleEvent struct {
	KioskID   string `json:"kiosk_id" example:"b1f0c1" doc:"Kiosk identifier"`
	KioskName string `json:"kiosk_name" example:"Illinois Terminal" doc:"Kiosk display name"`
	Layout    string `json:"layout" example:"TwoLineDepartures" doc:"Layout the cycle selected"`
	Success   bool   `json:"success" example:"true" doc:"Whether every sign command in the cycle succeeded"`
	Message   string `json:"message,omitempty" example:"Detour ahead" doc:"Operator message shown, if any"`
	Buffered  int    `json:"buffered" example:"4" doc:"Departures left in the buffer after the cycle"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Cycle timestamp"`
}

// Type returns the event type identifier for SignCycleEvent.
func (e SignCycleEvent) Type() uint32 { return TypeSignCycle }

// SignBlankedEvent is published when a sign is blanked because
// departures could not be fetched.
type SignBlankedEvent struct {
	KioskID   string `json:"kiosk_id" example:"b1f0c1" doc:"Kiosk identifier"`
	Reason    string `json:"reason" example:"departures fetch failed" doc:"Why the sign was blanked"`
	Success   bool   `json:"success" example:"true" doc:"Whether the blanking commands succeeded"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SignBlankedEvent.
func (e SignBlankedEvent) Type() uint32 { return TypeSignBlanked }

// KioskLoopStateEvent reports a kiosk loop moving between lifecycle states.
type KioskLoopStateEvent struct {
	KioskID   string `json:"kiosk_id" example:"b1f0c1" doc:"Kiosk identifier"`
	KioskName string `json:"kiosk_name" example:"Illinois Terminal" doc:"Kiosk display name"`
	State     string `json:"state" example:"steady" enum:"bootstrapping,steady,stopped" doc:"Loop state"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for KioskLoopStateEvent.
func (e KioskLoopStateEvent) Type() uint32 { return TypeKioskLoopState }

// BrightnessChangedEvent is published when a new brightness level has
// been pushed to the fleet.
type BrightnessChangedEvent struct {
	Brightness int    `json:"brightness" example:"40" doc:"Brightness level applied"`
	DarkMode   bool   `json:"dark_mode" example:"true" doc:"Dark mode status that selected the level"`
	Signs      int    `json:"signs" example:"12" doc:"Number of signs the level was pushed to"`
	Failed     int    `json:"failed" example:"0" doc:"Number of signs that rejected the update"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for BrightnessChangedEvent.
func (e BrightnessChangedEvent) Type() uint32 { return TypeBrightnessChanged }

// KioskStatsEvent carries running cycle totals for one kiosk.
type KioskStatsEvent struct {
	EventType string `json:"type" example:"kiosk_stats" doc:"Event type"`
	KioskID   string `json:"kiosk_id" example:"b1f0c1" doc:"Kiosk identifier"`
	Cycles    string `json:"cycles" example:"1440" doc:"Cycles run since start"`
	Failures  string `json:"failures" example:"3" doc:"Cycles with a failed sign command"`
	Blanked   string `json:"blanked" example:"0" doc:"Cycles that blanked the sign"`
}

// Type returns the event type identifier for KioskStatsEvent.
func (e KioskStatsEvent) Type() uint32 { return TypeKioskStats }

// LogEntryEvent carries one log record to live log subscribers.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"kiosk" doc:"Module that logged the record"`
	KioskID    string         `json:"kiosk_id,omitempty" example:"b1f0c1" doc:"Kiosk the record was logged for"`
	Message    string         `json:"message" example:"Sign updated" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
