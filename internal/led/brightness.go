package led

import (
	"context"
	"sync"
	"time"

	"github.com/kioskled/ledupdater/internal/events"
	"github.com/kioskled/ledupdater/internal/logging"
	"github.com/kioskled/ledupdater/internal/metrics"
)

// DefaultBrightnessInterval is the polling cadence when none is configured.
const DefaultBrightnessInterval = 60 * time.Second

// BrightnessConfig holds the two fleet brightness levels and how often
// dark mode is polled.
type BrightnessConfig struct {
	Light    int
	Dark     int
	Interval time.Duration
}

// BrightnessState is the level last pushed to the fleet.
type BrightnessState struct {
	Level     int       `json:"level" example:"40" doc:"Brightness level last pushed, 0 before the first push"`
	DarkMode  bool      `json:"dark_mode" example:"true" doc:"Dark mode status that selected the level"`
	Signs     int       `json:"signs" example:"12" doc:"Signs the level was pushed to"`
	Failed    int       `json:"failed" example:"0" doc:"Signs that rejected the level"`
	UpdatedAt time.Time `json:"updated_at,omitzero" doc:"When the level was pushed"`
}

// BrightnessLoop keeps every sign at the light or dark level. It only
// pushes when the target changes; per-sign failures are counted but do
// not cause a retry on the next tick.
type BrightnessLoop struct {
	cfg     BrightnessConfig
	source  DarkModeSource
	kiosks  func() []Kiosk
	factory Factory
	bus     Publisher
	logger  logging.Logger

	// controllers are private to this loop and never shared with a
	// kiosk loop.
	controllers map[string]Controller

	mu    sync.RWMutex
	state BrightnessState
}

// NewBrightnessLoop creates a brightness loop over the kiosks returned by
// kiosks. bus may be nil.
func NewBrightnessLoop(cfg BrightnessConfig, source DarkModeSource, kiosks func() []Kiosk, factory Factory, bus Publisher, logger logging.Logger) *BrightnessLoop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultBrightnessInterval
	}
	return &BrightnessLoop{
		cfg:         cfg,
		source:      source,
		kiosks:      kiosks,
		factory:     factory,
		bus:         bus,
		logger:      logger,
		controllers: make(map[string]Controller),
	}
}

// Run ticks immediately and then every interval until ctx is cancelled.
func (b *BrightnessLoop) Run(ctx context.Context) {
	b.logger.Info("Brightness loop starting",
		"interval", b.cfg.Interval,
		"light", b.cfg.Light,
		"dark", b.cfg.Dark)

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	b.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Brightness loop stopped")
			return
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Tick polls dark mode and pushes the matching level if it differs from
// the one last pushed. It reports whether a push happened. A dark mode
// error is treated as light mode. Tick must not be called concurrently.
func (b *BrightnessLoop) Tick(ctx context.Context) bool {
	dark, err := b.source.DarkMode(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		b.logger.Warn("Failed to fetch dark mode status, assuming light mode", "error", err)
		metrics.RecordFetchFailure(metrics.SourceDarkMode)
		dark = false
	}

	target := b.cfg.Light
	if dark {
		target = b.cfg.Dark
	}

	b.mu.RLock()
	current := b.state.Level
	b.mu.RUnlock()
	if target == current {
		return false
	}

	kiosks := b.kiosks()
	failed := 0
	for _, k := range kiosks {
		if err := b.controller(k).SetBrightness(ctx, target); err != nil {
			failed++
			b.logger.Warn("Failed to set sign brightness",
				"kiosk_id", k.ID,
				"sign", k.SignAddress,
				"brightness", target,
				"error", err)
		}
	}

	state := BrightnessState{
		Level:     target,
		DarkMode:  dark,
		Signs:     len(kiosks),
		Failed:    failed,
		UpdatedAt: time.Now(),
	}
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()

	metrics.SetBrightness(target, failed)
	b.logger.Info("Sign brightness updated",
		"brightness", target,
		"dark_mode", dark,
		"signs", len(kiosks),
		"failed", failed)

	if b.bus != nil {
		b.bus.Publish(events.BrightnessChangedEvent{
			Brightness: target,
			DarkMode:   dark,
			Signs:      len(kiosks),
			Failed:     failed,
			Timestamp:  state.UpdatedAt.Format(time.RFC3339),
		})
	}
	return true
}

// State returns the level last pushed.
func (b *BrightnessLoop) State() BrightnessState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// controller is only called from the Tick goroutine.
func (b *BrightnessLoop) controller(k Kiosk) Controller {
	c, ok := b.controllers[k.ID]
	if !ok {
		c = b.factory(k.SignAddress)
		b.controllers[k.ID] = c
	}
	return c
}
