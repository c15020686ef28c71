package led

import (
	"context"
	"testing"
	"time"

	"github.com/kioskled/ledupdater/internal/events"
)

var brightnessKiosks = []Kiosk{
	{ID: "k1", SignAddress: "10.0.0.1"},
	{ID: "k2", SignAddress: "10.0.0.2"},
}

func newTestBrightness(source DarkModeSource, ctrls *controllerSet, bus Publisher) *BrightnessLoop {
	return NewBrightnessLoop(
		BrightnessConfig{Light: 100, Dark: 40, Interval: 10 * time.Millisecond},
		source,
		func() []Kiosk { return brightnessKiosks },
		ctrls.factory,
		bus,
		discardLogger(),
	)
}

func TestBrightnessLoop_FirstTickAlwaysPushes(t *testing.T) {
	ctrls := newControllerSet()
	bus := &recordingBus{}
	b := newTestBrightness(&fakeDarkMode{answers: []bool{false}}, ctrls, bus)

	if !b.Tick(context.Background()) {
		t.Fatal("first Tick() = false, want push")
	}
	for _, k := range brightnessKiosks {
		c := ctrls.get(k.SignAddress)
		if len(c) != 1 || c[0].level() != 100 {
			t.Errorf("sign %s brightness not set to 100", k.SignAddress)
		}
	}

	st := b.State()
	if st.Level != 100 || st.DarkMode || st.Signs != 2 || st.Failed != 0 {
		t.Errorf("State() = %+v", st)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.events) != 1 {
		t.Fatalf("events = %d, want 1", len(bus.events))
	}
	ev, ok := bus.events[0].(events.BrightnessChangedEvent)
	if !ok || ev.Brightness != 100 || ev.Signs != 2 {
		t.Errorf("event = %+v", bus.events[0])
	}
}

func TestBrightnessLoop_EdgeTriggered(t *testing.T) {
	ctrls := newControllerSet()
	dm := &fakeDarkMode{}
	b := newTestBrightness(dm, ctrls, nil)
	ctx := context.Background()

	steps := []struct {
		dark      bool
		wantPush  bool
		wantLevel int
	}{
		{dark: false, wantPush: true, wantLevel: 100},
		{dark: false, wantPush: false, wantLevel: 100},
		{dark: true, wantPush: true, wantLevel: 40},
		{dark: true, wantPush: false, wantLevel: 40},
		{dark: false, wantPush: true, wantLevel: 100},
	}
	for i, s := range steps {
		dm.set(s.dark, nil)
		if got := b.Tick(ctx); got != s.wantPush {
			t.Errorf("step %d: Tick() = %v, want %v", i, got, s.wantPush)
		}
		if got := b.State().Level; got != s.wantLevel {
			t.Errorf("step %d: level = %d, want %d", i, got, s.wantLevel)
		}
	}

	c := ctrls.get("10.0.0.1")
	if len(c) != 1 {
		t.Fatalf("controllers created for sign = %d, want 1", len(c))
	}
	if got := c[0].count("SetBrightness"); got != 3 {
		t.Errorf("SetBrightness calls = %d, want 3", got)
	}
}

func TestBrightnessLoop_DarkModeErrorMeansLight(t *testing.T) {
	ctrls := newControllerSet()
	dm := &fakeDarkMode{}
	b := newTestBrightness(dm, ctrls, nil)
	ctx := context.Background()

	dm.set(true, nil)
	b.Tick(ctx)
	if b.State().Level != 40 {
		t.Fatalf("level = %d, want 40", b.State().Level)
	}

	dm.set(false, errFake)
	if !b.Tick(ctx) {
		t.Fatal("Tick() after dark mode error should push the light level")
	}
	if st := b.State(); st.Level != 100 || st.DarkMode {
		t.Errorf("State() = %+v, want light level", st)
	}
}

func TestBrightnessLoop_FailuresDoNotRepush(t *testing.T) {
	ctrls := newControllerSet()
	failing := func(address string) Controller {
		c := ctrls.factory(address).(*fakeController)
		if address == "10.0.0.2" {
			c.setFail("SetBrightness", errFake)
		}
		return c
	}
	b := NewBrightnessLoop(
		BrightnessConfig{Light: 100, Dark: 40},
		&fakeDarkMode{answers: []bool{true}},
		func() []Kiosk { return brightnessKiosks },
		failing,
		nil,
		discardLogger(),
	)
	ctx := context.Background()

	if !b.Tick(ctx) {
		t.Fatal("first Tick() = false, want push")
	}
	if st := b.State(); st.Failed != 1 || st.Level != 40 {
		t.Errorf("State() = %+v, want level 40 with one failure", st)
	}
	if b.Tick(ctx) {
		t.Error("second Tick() re-pushed after a partial failure")
	}
	if got := ctrls.get("10.0.0.2")[0].count("SetBrightness"); got != 1 {
		t.Errorf("failing sign SetBrightness calls = %d, want 1", got)
	}
}

func TestBrightnessLoop_RunStopsOnCancel(t *testing.T) {
	ctrls := newControllerSet()
	b := newTestBrightness(&fakeDarkMode{answers: []bool{false}}, ctrls, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	waitFor(t, "first push", func() bool { return b.State().Level == 100 })
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
