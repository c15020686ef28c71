package led

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/kioskled/ledupdater/internal/display"
	"github.com/kioskled/ledupdater/internal/events"
	"github.com/kioskled/ledupdater/internal/logging"
	"github.com/kioskled/ledupdater/internal/metrics"
)

// Loop states.
const (
	StateBootstrapping = "bootstrapping"
	StateSteady        = "steady"
	StateStopped       = "stopped"
)

// DefaultSignInterval is the delay between cycles when none is configured.
const DefaultSignInterval = 5 * time.Second

// Publisher receives loop events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// KioskLoop runs the decision cycle for one kiosk. All of its state is
// private to the loop goroutine; nothing is shared with other kiosks.
type KioskLoop struct {
	kiosk     Kiosk
	telemetry Telemetry
	presenter *Presenter
	buffer    *display.Buffer
	bus       Publisher
	interval  time.Duration
	logger    logging.Logger

	heartbeats sync.WaitGroup
}

// NewKioskLoop creates a loop for kiosk that drives ctrl. bus may be nil.
func NewKioskLoop(kiosk Kiosk, ctrl Controller, telemetry Telemetry, bus Publisher, interval time.Duration, logger logging.Logger) *KioskLoop {
	if interval <= 0 {
		interval = DefaultSignInterval
	}
	return &KioskLoop{
		kiosk:     kiosk,
		telemetry: telemetry,
		presenter: NewPresenter(ctrl, logger),
		buffer:    display.NewBuffer(),
		bus:       bus,
		interval:  interval,
		logger:    logger,
	}
}

// Kiosk returns the kiosk this loop drives.
func (l *KioskLoop) Kiosk() Kiosk {
	return l.kiosk
}

// Presenter returns the loop's presenter.
func (l *KioskLoop) Presenter() *Presenter {
	return l.presenter
}

// Run bootstraps the buffer and then runs cycles every interval until
// ctx is cancelled. It waits for in-flight heartbeats before returning.
func (l *KioskLoop) Run(ctx context.Context) {
	defer func() {
		l.heartbeats.Wait()
		l.publishState(StateStopped)
		l.logger.Info("Kiosk loop stopped")
	}()

	l.publishState(StateBootstrapping)
	l.logger.Info("Kiosk loop starting", "interval", l.interval)
	l.bootstrap(ctx)
	l.publishState(StateSteady)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		l.runCycle(ctx)
		timer.Reset(l.interval)
	}
}

func (l *KioskLoop) bootstrap(ctx context.Context) {
	deps, err := l.telemetry.Departures(ctx, l.kiosk.StopID, l.kiosk.ID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("Initial departures fetch failed, blanking sign", "error", err)
		metrics.RecordFetchFailure(metrics.SourceDepartures)
		l.blank(ctx, "initial departures fetch failed")
		return
	}
	l.buffer.Refill(deps)
	metrics.SetBuffered(l.kiosk.ID, l.buffer.Len())
	l.logger.Debug("Departure buffer filled", "count", len(deps))
}

// runCycle runs one decision cycle. A panic is logged and the cycle
// abandoned so the next one still runs.
func (l *KioskLoop) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Kiosk cycle panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()

	msgs, err := l.telemetry.ActiveMessages(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("Failed to fetch general messages", "error", err)
		metrics.RecordFetchFailure(metrics.SourceMessages)
		msgs = nil
	}

	if l.buffer.IsEmpty() {
		deps, err := l.telemetry.Departures(ctx, l.kiosk.StopID, l.kiosk.ID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn("Failed to fetch departures, blanking sign", "error", err)
			metrics.RecordFetchFailure(metrics.SourceDepartures)
			l.blank(ctx, "departures fetch failed")
			return
		}
		l.buffer.Refill(deps)
		l.logger.Debug("Departure buffer refilled", "count", len(deps))
	}

	var msg *display.GeneralMessage
	if m, ok := display.SelectMessage(l.kiosk.StopID, msgs); ok {
		msg = &m
	}

	layout := layoutFor(msg, l.buffer)
	ok := l.presenter.Present(ctx, msg, l.buffer)

	metrics.RecordCycle(l.kiosk.ID, layout, ok)
	metrics.SetBuffered(l.kiosk.ID, l.buffer.Len())

	ev := events.SignCycleEvent{
		KioskID:   l.kiosk.ID,
		KioskName: l.kiosk.DisplayName,
		Layout:    layout,
		Success:   ok,
		Buffered:  l.buffer.Len(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if msg != nil {
		ev.Message = msg.Text
	}
	l.publish(ev)

	if ok {
		l.sendHeartbeat(ctx)
	}
}

// layoutFor names the layout Present will choose. It must be called
// before Present pops from buf.
func layoutFor(msg *display.GeneralMessage, buf *display.Buffer) string {
	switch {
	case msg != nil && msg.Blocking, buf.IsEmpty():
		return LayoutTwoLineMessage
	case msg != nil:
		return LayoutOneLineMessage
	}
	return LayoutTwoLineDepartures
}

func (l *KioskLoop) blank(ctx context.Context, reason string) {
	ok := l.presenter.Blank(ctx)
	metrics.RecordBlank(l.kiosk.ID)
	metrics.SetBuffered(l.kiosk.ID, l.buffer.Len())
	l.publish(events.SignBlankedEvent{
		KioskID:   l.kiosk.ID,
		Reason:    reason,
		Success:   ok,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// sendHeartbeat logs liveness upstream without holding up the cycle.
func (l *KioskLoop) sendHeartbeat(ctx context.Context) {
	l.heartbeats.Add(1)
	go func() {
		defer l.heartbeats.Done()
		err := l.telemetry.LogHeartbeat(ctx, l.kiosk.ID)
		metrics.RecordHeartbeat(err == nil)
		if err != nil && ctx.Err() == nil {
			l.logger.Warn("Failed to log heartbeat", "error", err)
		}
	}()
}

func (l *KioskLoop) publishState(state string) {
	l.publish(events.KioskLoopStateEvent{
		KioskID:   l.kiosk.ID,
		KioskName: l.kiosk.DisplayName,
		State:     state,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (l *KioskLoop) publish(ev events.Event) {
	if l.bus != nil {
		l.bus.Publish(ev)
	}
}
