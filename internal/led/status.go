package led

import (
	"sort"
	"sync"

	"github.com/kioskled/ledupdater/internal/events"
)

// Subscriber is the subscription side of the event bus.
type Subscriber interface {
	Subscribe(handler any) func()
}

// KioskStatus is the latest loop activity seen for one kiosk.
type KioskStatus struct {
	KioskID             string `json:"kiosk_id" example:"b1f0c1" doc:"Kiosk identifier"`
	KioskName           string `json:"kiosk_name,omitempty" example:"Illinois Terminal" doc:"Kiosk display name"`
	State               string `json:"state,omitempty" example:"steady" doc:"Loop state"`
	Layout              string `json:"layout,omitempty" example:"TwoLineDepartures" doc:"Layout of the last cycle"`
	LastSuccess         bool   `json:"last_success" example:"true" doc:"Whether the last cycle succeeded"`
	Message             string `json:"message,omitempty" example:"Detour ahead" doc:"Operator message of the last cycle"`
	Buffered            int    `json:"buffered" example:"3" doc:"Departures left in the buffer"`
	ConsecutiveFailures int    `json:"consecutive_failures" example:"0" doc:"Failed or blanked cycles since the last success"`
	LastCycleAt         string `json:"last_cycle_at,omitempty" example:"2025-01-27T10:30:00Z" doc:"Timestamp of the last cycle"`
	LastBlankAt         string `json:"last_blank_at,omitempty" example:"2025-01-27T10:29:55Z" doc:"Timestamp of the last blanking"`
	LastBlankReason     string `json:"last_blank_reason,omitempty" example:"departures fetch failed" doc:"Why the sign was last blanked"`
}

// StatusTracker folds loop events into a per-kiosk status table for the
// API. Updates arrive on the bus's goroutines.
type StatusTracker struct {
	bus    Subscriber
	unsubs []func()

	mu     sync.RWMutex
	kiosks map[string]*KioskStatus
}

// NewStatusTracker creates a tracker for bus. Call Start to subscribe.
func NewStatusTracker(bus Subscriber) *StatusTracker {
	return &StatusTracker{
		bus:    bus,
		kiosks: make(map[string]*KioskStatus),
	}
}

// Start subscribes to loop events.
func (t *StatusTracker) Start() {
	t.unsubs = append(t.unsubs,
		t.bus.Subscribe(func(e events.SignCycleEvent) { t.onCycle(e) }),
		t.bus.Subscribe(func(e events.SignBlankedEvent) { t.onBlank(e) }),
		t.bus.Subscribe(func(e events.KioskLoopStateEvent) { t.onState(e) }),
	)
}

// Stop unsubscribes from the bus.
func (t *StatusTracker) Stop() {
	for _, unsub := range t.unsubs {
		unsub()
	}
	t.unsubs = nil
}

// Get returns the status of one kiosk.
func (t *StatusTracker) Get(kioskID string) (KioskStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.kiosks[kioskID]
	if !ok {
		return KioskStatus{}, false
	}
	return *s, true
}

// All returns every known kiosk status ordered by kiosk id.
func (t *StatusTracker) All() []KioskStatus {
	t.mu.RLock()
	out := make([]KioskStatus, 0, len(t.kiosks))
	for _, s := range t.kiosks {
		out = append(out, *s)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].KioskID < out[j].KioskID })
	return out
}

func (t *StatusTracker) onCycle(e events.SignCycleEvent) {
	t.update(e.KioskID, func(s *KioskStatus) {
		if e.KioskName != "" {
			s.KioskName = e.KioskName
		}
		s.Layout = e.Layout
		s.LastSuccess = e.Success
		s.Message = e.Message
		s.Buffered = e.Buffered
		s.LastCycleAt = e.Timestamp
		if e.Success {
			s.ConsecutiveFailures = 0
		} else {
			s.ConsecutiveFailures++
		}
	})
}

func (t *StatusTracker) onBlank(e events.SignBlankedEvent) {
	t.update(e.KioskID, func(s *KioskStatus) {
		s.LastSuccess = false
		s.Buffered = 0
		s.LastBlankAt = e.Timestamp
		s.LastBlankReason = e.Reason
		s.ConsecutiveFailures++
	})
}

func (t *StatusTracker) onState(e events.KioskLoopStateEvent) {
	t.update(e.KioskID, func(s *KioskStatus) {
		if e.KioskName != "" {
			s.KioskName = e.KioskName
		}
		s.State = e.State
	})
}

func (t *StatusTracker) update(kioskID string, fn func(*KioskStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.kiosks[kioskID]
	if !ok {
		s = &KioskStatus{KioskID: kioskID}
		t.kiosks[kioskID] = s
	}
	fn(s)
}
