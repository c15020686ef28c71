// Package metrics provides Prometheus metrics for the kiosk sign loops.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultBlanked = "blanked"
)

// Fetch sources.
const (
	SourceDepartures = "departures"
	SourceMessages   = "messages"
	SourceDarkMode   = "dark_mode"
	SourceHeartbeat  = "heartbeat"
)

var (
	kioskCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledupdater",
		Subsystem: "kiosk",
		Name:      "cycles_total",
		Help:      "Decision cycles run per kiosk by result",
	}, []string{"kiosk_id", "result"})

	kioskLayouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledupdater",
		Subsystem: "kiosk",
		Name:      "layout_total",
		Help:      "Layouts selected per kiosk",
	}, []string{"kiosk_id", "layout"})

	kioskBuffered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ledupdater",
		Subsystem: "kiosk",
		Name:      "buffered_departures",
		Help:      "Departures waiting in the kiosk buffer",
	}, []string{"kiosk_id"})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledupdater",
		Subsystem: "realtime",
		Name:      "fetch_failures_total",
		Help:      "Failed upstream calls by source",
	}, []string{"source"})

	heartbeats = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledupdater",
		Subsystem: "realtime",
		Name:      "heartbeats_total",
		Help:      "Heartbeats logged by result",
	}, []string{"result"})

	signBrightness = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledupdater",
		Subsystem: "sign",
		Name:      "brightness",
		Help:      "Brightness level last pushed to the fleet",
	})

	brightnessPushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledupdater",
		Subsystem: "sign",
		Name:      "brightness_push_failures_total",
		Help:      "Signs that rejected a brightness update",
	})

	// Local cache for the status API.
	kioskCache   = make(map[string]*KioskCounters)
	kioskCacheMu sync.RWMutex
)

// KioskCounters holds running totals for one kiosk.
type KioskCounters struct {
	Cycles   uint64
	Failures uint64
	Blanked  uint64
}

// RecordCycle counts one presented cycle and the layout it used.
func RecordCycle(kioskID, layout string, success bool) {
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}
	kioskCycles.WithLabelValues(kioskID, result).Inc()
	kioskLayouts.WithLabelValues(kioskID, layout).Inc()
	updateCache(kioskID, func(c *KioskCounters) {
		c.Cycles++
		if !success {
			c.Failures++
		}
	})
}

// RecordBlank counts a cycle that blanked the sign instead of presenting.
func RecordBlank(kioskID string) {
	kioskCycles.WithLabelValues(kioskID, ResultBlanked).Inc()
	updateCache(kioskID, func(c *KioskCounters) {
		c.Cycles++
		c.Blanked++
	})
}

// SetBuffered sets the buffered departure count for a kiosk.
func SetBuffered(kioskID string, n int) {
	kioskBuffered.WithLabelValues(kioskID).Set(float64(n))
}

// RecordFetchFailure counts a failed upstream call.
func RecordFetchFailure(source string) {
	fetchFailures.WithLabelValues(source).Inc()
}

// RecordHeartbeat counts a heartbeat attempt.
func RecordHeartbeat(ok bool) {
	if ok {
		heartbeats.WithLabelValues(ResultSuccess).Inc()
		return
	}
	heartbeats.WithLabelValues(ResultFailure).Inc()
}

// SetBrightness records the brightness pushed to the fleet and how many
// signs failed to take it.
func SetBrightness(level, failed int) {
	signBrightness.Set(float64(level))
	if failed > 0 {
		brightnessPushFailures.Add(float64(failed))
	}
}

// DeleteKioskMetrics removes all per-kiosk series for a kiosk.
func DeleteKioskMetrics(kioskID string) {
	kioskCycles.DeletePartialMatch(prometheus.Labels{"kiosk_id": kioskID})
	kioskLayouts.DeletePartialMatch(prometheus.Labels{"kiosk_id": kioskID})
	kioskBuffered.DeleteLabelValues(kioskID)

	kioskCacheMu.Lock()
	delete(kioskCache, kioskID)
	kioskCacheMu.Unlock()
}

// GetKioskCounters returns a copy of the running totals for a kiosk.
func GetKioskCounters(kioskID string) *KioskCounters {
	kioskCacheMu.RLock()
	defer kioskCacheMu.RUnlock()
	if c, ok := kioskCache[kioskID]; ok {
		dup := *c
		return &dup
	}
	return nil
}

// GetAllKioskCounters returns a copy of the running totals for every kiosk.
func GetAllKioskCounters() map[string]KioskCounters {
	kioskCacheMu.RLock()
	defer kioskCacheMu.RUnlock()
	out := make(map[string]KioskCounters, len(kioskCache))
	for id, c := range kioskCache {
		out[id] = *c
	}
	return out
}

func updateCache(kioskID string, update func(*KioskCounters)) {
	kioskCacheMu.Lock()
	defer kioskCacheMu.Unlock()
	c, ok := kioskCache[kioskID]
	if !ok {
		c = &KioskCounters{}
		kioskCache[kioskID] = c
	}
	update(c)
}
