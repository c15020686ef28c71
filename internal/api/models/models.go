package models

import (
	"github.com/kioskled/ledupdater/internal/led"
	"github.com/kioskled/ledupdater/internal/version"
)

// Health check models
type HealthData struct {
	Status     string `json:"status" example:"ok" doc:"Service status"`
	Message    string `json:"message" example:"API is healthy" doc:"Status message"`
	InstanceID string `json:"instance_id,omitempty" example:"6f1c2d1e-8a4b-4c55-9a63-1f6a1c9b0e2d" doc:"Identifier of this updater process"`
	Kiosks     int    `json:"kiosks" example:"12" doc:"Number of kiosk loops running"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionResponse struct {
	Body version.Info
}

// Kiosk models
type KioskCounters struct {
	Cycles   uint64 `json:"cycles" example:"1440" doc:"Cycles run since start"`
	Failures uint64 `json:"failures" example:"3" doc:"Cycles with a failed sign command"`
	Blanked  uint64 `json:"blanked" example:"0" doc:"Cycles that blanked the sign"`
}

type KioskData struct {
	led.Kiosk
	Status   led.KioskStatus `json:"status" doc:"Latest loop activity"`
	Counters KioskCounters   `json:"counters" doc:"Running cycle totals"`
}

type KioskDetailData struct {
	KioskData
	Frame led.Frame `json:"frame" doc:"What the sign was last given"`
}

type KioskListData struct {
	Kiosks []KioskData `json:"kiosks" doc:"Kiosks driven by this process"`
	Count  int         `json:"count" example:"12" doc:"Number of kiosks"`
}

type KioskListResponse struct {
	Body KioskListData
}

type KioskRequest struct {
	ID string `path:"id" example:"b1f0c1" doc:"Kiosk identifier"`
}

type KioskResponse struct {
	Body KioskDetailData
}

// Brightness models
type BrightnessResponse struct {
	Body led.BrightnessState
}

// StreamRequest narrows an event stream to one kiosk.
type StreamRequest struct {
	Kiosk string `query:"kiosk" example:"b1f0c1" doc:"Only send events for this kiosk"`
}

// Log models
type LogsRequest struct {
	Level  string `query:"level" enum:"debug,info,warn,error" doc:"Only return entries at this level or above"`
	Module string `query:"module" example:"kiosk" doc:"Only return entries from this module"`
	Kiosk  string `query:"kiosk" example:"b1f0c1" doc:"Only return entries logged for this kiosk"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" default:"200" doc:"Maximum entries to return, newest last"`
}

type LogEntry struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"kiosk" doc:"Module that logged the entry"`
	KioskID    string         `json:"kiosk_id,omitempty" example:"b1f0c1" doc:"Kiosk the entry was logged for"`
	Message    string         `json:"message" example:"Sign updated" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

type LogsData struct {
	Entries []LogEntry `json:"entries" doc:"Buffered log entries, oldest first"`
	Count   int        `json:"count" example:"200" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
