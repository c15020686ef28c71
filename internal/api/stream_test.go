package api

import (
	"context"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/kioskled/ledupdater/internal/events"
)

func TestForKiosk(t *testing.T) {
	tests := []struct {
		name string
		ev   any
		want bool
	}{
		{"own cycle", events.SignCycleEvent{KioskID: "k1"}, true},
		{"other cycle", events.SignCycleEvent{KioskID: "k2"}, false},
		{"other blank", events.SignBlankedEvent{KioskID: "k2"}, false},
		{"own state", events.KioskLoopStateEvent{KioskID: "k1"}, true},
		{"own stats", events.KioskStatsEvent{KioskID: "k1"}, true},
		{"brightness is fleet wide", events.BrightnessChangedEvent{Brightness: 40}, true},
	}

	keep := forKiosk("k1")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keep(tt.ev); got != tt.want {
				t.Errorf("keep(%T) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}

	if forKiosk("") != nil {
		t.Error("forKiosk(\"\") should keep everything")
	}
}

func TestPump(t *testing.T) {
	ch := make(chan any, 4)
	ch <- events.SignCycleEvent{KioskID: "k2"}
	ch <- events.SignCycleEvent{KioskID: "k1", Layout: "TwoLineDepartures"}
	ch <- events.BrightnessChangedEvent{Brightness: 40}

	var got []any
	done := make(chan struct{})
	send := sse.Sender(func(m sse.Message) error {
		got = append(got, m.Data)
		if len(got) == 2 {
			close(done)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		pump(ctx, send, ch, forKiosk("k1"))
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not forward events")
	}
	cancel()
	<-finished

	if len(got) != 2 {
		t.Fatalf("sent %d events, want 2", len(got))
	}
	if c, ok := got[0].(events.SignCycleEvent); !ok || c.KioskID != "k1" {
		t.Errorf("first event = %+v", got[0])
	}
	if _, ok := got[1].(events.BrightnessChangedEvent); !ok {
		t.Errorf("second event = %+v", got[1])
	}
}
