// Package logging provides structured logging with per-module log levels.
//
// Records go to stdout when it is connected to a terminal, pipe or file,
// to the systemd journal when journald is reachable, and always to an
// in-memory history served by the HTTP API. Entries logged through a
// logger carrying kiosk_id are tagged with that kiosk.
//
// Initialize once at startup, then ask for a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"kiosk":    "debug",
//			"realtime": "warn",
//		},
//	})
//
//	logger := logging.GetLogger("kiosk").With("kiosk_id", id)
//	logger.Info("Loop started")
//
// Module levels are backed by slog.LevelVar, so SetLevels changes them in
// place when the config file is edited.
//
// Journal entries carry SYSLOG_IDENTIFIER=ledupdater and one upper-cased
// field per attribute:
//
//	journalctl -t ledupdater -f
//	journalctl -t ledupdater MODULE=kiosk KIOSK_ID=b1f0c1
package logging
