package led

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ManagerConfig wires a Manager to its collaborators.
type ManagerConfig struct {
	Directory Directory
	Factory   Factory
	Telemetry Telemetry
	Bus       Publisher
	Interval  time.Duration

	// Logger is used for fleet messages, KioskLogger as the base for
	// every kiosk loop. Either may be nil.
	Logger      *slog.Logger
	KioskLogger *slog.Logger
}

// Manager runs one KioskLoop per kiosk in the directory.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	mu     sync.RWMutex
	kiosks []Kiosk
	loops  map[string]*KioskLoop
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a fleet manager. Nothing runs until Start.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.KioskLogger == nil {
		cfg.KioskLogger = cfg.Logger
	}
	return &Manager{
		cfg:    cfg,
		logger: cfg.Logger,
		loops:  make(map[string]*KioskLoop),
	}
}

// Start loads the kiosk directory and starts a loop for every kiosk.
// A directory error is returned and nothing is started.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return errors.New("kiosk manager already started")
	}

	kiosks, err := m.cfg.Directory.ListKiosks(ctx)
	if err != nil {
		return fmt.Errorf("load kiosk directory: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for _, k := range kiosks {
		if _, dup := m.loops[k.ID]; dup {
			m.logger.Warn("Duplicate kiosk in directory, skipping", "kiosk_id", k.ID)
			continue
		}
		logger := m.cfg.KioskLogger.With(
			"kiosk_id", k.ID,
			"kiosk_name", k.DisplayName,
			"stop_id", k.StopID)
		loop := NewKioskLoop(k, m.cfg.Factory(k.SignAddress), m.cfg.Telemetry, m.cfg.Bus, m.cfg.Interval, logger)
		m.loops[k.ID] = loop
		m.kiosks = append(m.kiosks, k)

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			loop.Run(loopCtx)
		}()
	}

	m.logger.Info("Kiosk loops started", "count", len(m.loops))
	return nil
}

// Stop cancels every loop and waits for them to return.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	m.mu.RUnlock()

	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
	m.logger.Info("Kiosk loops stopped")
}

// Kiosks returns the kiosks loaded by Start.
func (m *Manager) Kiosks() []Kiosk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Kiosk, len(m.kiosks))
	copy(out, m.kiosks)
	return out
}

// Kiosk returns the kiosk with the given id.
func (m *Manager) Kiosk(id string) (Kiosk, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loop, ok := m.loops[id]
	if !ok {
		return Kiosk{}, false
	}
	return loop.Kiosk(), true
}

// Frame returns what the kiosk's sign was last given.
func (m *Manager) Frame(id string) (Frame, bool) {
	m.mu.RLock()
	loop, ok := m.loops[id]
	m.mu.RUnlock()
	if !ok {
		return Frame{}, false
	}
	return loop.Presenter().Last(), true
}
