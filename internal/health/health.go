// Package health tracks coarse system state: per-module health scores, active
// critical alerts and the survival-mode flag. The decision engine consumes a
// point-in-time Snapshot of this state when scoring system-level decisions.
package health

import (
	"encoding/json"
	"sync"
	"time"
)

// Status is the live system-health registry. Safe for concurrent use.
type Status struct {
	mu sync.RWMutex

	modules        map[string]float64 // module name → health score in [0,1]
	criticalAlerts int
	survivalMode   bool

	feedsConnected map[string]bool
	lastTickAt     time.Time
	activeSignals  int
	startedAt      time.Time
}

// New returns a Status with no modules registered.
func New() *Status {
	return &Status{
		modules:        make(map[string]float64),
		feedsConnected: make(map[string]bool),
		startedAt:      time.Now(),
	}
}

// SetModuleHealth records a module's health score, clamped to [0,1].
func (h *Status) SetModuleHealth(module string, score float64) {
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	h.mu.Lock()
	h.modules[module] = score
	h.mu.Unlock()
}

// SetCriticalAlerts records the number of currently active critical alerts.
func (h *Status) SetCriticalAlerts(n int) {
	h.mu.Lock()
	h.criticalAlerts = n
	h.mu.Unlock()
}

// SetSurvivalMode toggles the survival-mode flag.
func (h *Status) SetSurvivalMode(on bool) {
	h.mu.Lock()
	h.survivalMode = on
	h.mu.Unlock()
}

// SetFeedConnected records a feed's connection state.
func (h *Status) SetFeedConnected(exchange string, connected bool) {
	h.mu.Lock()
	h.feedsConnected[exchange] = connected
	h.mu.Unlock()
}

// TickSeen records that a valid tick was ingested.
func (h *Status) TickSeen(ts time.Time) {
	h.mu.Lock()
	if ts.After(h.lastTickAt) {
		h.lastTickAt = ts
	}
	h.mu.Unlock()
}

// SetActiveSignals records the current active-signal count.
func (h *Status) SetActiveSignals(n int) {
	h.mu.Lock()
	h.activeSignals = n
	h.mu.Unlock()
}

// Snapshot is an immutable point-in-time view of system health.
type Snapshot struct {
	AvgModuleHealth float64         `json:"avg_module_health"`
	CriticalAlerts  int             `json:"critical_alerts"`
	SurvivalMode    bool            `json:"survival_mode"`
	FeedsConnected  map[string]bool `json:"feeds_connected"`
	LastTickAt      time.Time       `json:"last_tick_at"`
	ActiveSignals   int             `json:"active_signals"`
	StartedAt       time.Time       `json:"started_at"`
}

// Snapshot returns the current health state. When no modules are registered
// the average health is 1.0 — an empty registry is a healthy one.
func (h *Status) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	avg := 1.0
	if len(h.modules) > 0 {
		sum := 0.0
		for _, score := range h.modules {
			sum += score
		}
		avg = sum / float64(len(h.modules))
	}

	feeds := make(map[string]bool, len(h.feedsConnected))
	for k, v := range h.feedsConnected {
		feeds[k] = v
	}

	return Snapshot{
		AvgModuleHealth: avg,
		CriticalAlerts:  h.criticalAlerts,
		SurvivalMode:    h.survivalMode,
		FeedsConnected:  feeds,
		LastTickAt:      h.lastTickAt,
		ActiveSignals:   h.activeSignals,
		StartedAt:       h.startedAt,
	}
}

// JSON returns the JSON-encoded current snapshot (for the /healthz endpoint).
func (h *Status) JSON() []byte {
	snap := h.Snapshot()
	b, _ := json.Marshal(&snap)
	return b
}
