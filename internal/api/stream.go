package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/kioskled/ledupdater/internal/events"
)

// pump forwards events from ch to the client until it disconnects or a
// write fails. Events rejected by keep are skipped.
func pump(ctx context.Context, send sse.Sender, ch <-chan any, keep func(any) bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if keep != nil && !keep(ev) {
				continue
			}
			if err := send.Data(ev); err != nil {
				return
			}
		}
	}
}

// forKiosk keeps events belonging to kioskID plus fleet-wide events.
// An empty kioskID keeps everything.
func forKiosk(kioskID string) func(any) bool {
	if kioskID == "" {
		return nil
	}
	return func(ev any) bool {
		owner := kioskOf(ev)
		return owner == "" || owner == kioskID
	}
}

// kioskOf returns the kiosk an event is about, or "" for fleet-wide ones.
func kioskOf(ev any) string {
	switch e := ev.(type) {
	case events.SignCycleEvent:
		return e.KioskID
	case events.SignBlankedEvent:
		return e.KioskID
	case events.KioskLoopStateEvent:
		return e.KioskID
	case events.KioskStatsEvent:
		return e.KioskID
	case events.LogEntryEvent:
		return e.KioskID
	}
	return ""
}
