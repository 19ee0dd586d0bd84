package health

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSnapshot_EmptyRegistryIsHealthy(t *testing.T) {
	h := New()
	if avg := h.Snapshot().AvgModuleHealth; avg != 1.0 {
		t.Errorf("avg=%v with no modules, want 1.0", avg)
	}
}

func TestSnapshot_AverageAndClamp(t *testing.T) {
	h := New()
	h.SetModuleHealth("feed", 0.5)
	h.SetModuleHealth("tracker", 1.0)
	h.SetModuleHealth("bridge", 1.5)  // clamps to 1
	h.SetModuleHealth("engine", -0.3) // clamps to 0

	if avg := h.Snapshot().AvgModuleHealth; avg != 0.625 {
		t.Errorf("avg=%v, want 0.625", avg)
	}
}

func TestSnapshot_OverwriteModuleScore(t *testing.T) {
	h := New()
	h.SetModuleHealth("feed", 0.2)
	h.SetModuleHealth("feed", 0.8)
	if avg := h.Snapshot().AvgModuleHealth; avg != 0.8 {
		t.Errorf("avg=%v after overwrite, want 0.8", avg)
	}
}

func TestTickSeen_Monotonic(t *testing.T) {
	h := New()
	later := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Minute)

	h.TickSeen(later)
	h.TickSeen(earlier) // out-of-order tick must not move the marker back

	if got := h.Snapshot().LastTickAt; !got.Equal(later) {
		t.Errorf("lastTickAt=%v, want %v", got, later)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	h := New()
	h.SetFeedConnected("binance", true)

	snap := h.Snapshot()
	snap.FeedsConnected["binance"] = false

	if !h.Snapshot().FeedsConnected["binance"] {
		t.Error("mutating a snapshot leaked into live state")
	}
}

func TestJSON(t *testing.T) {
	h := New()
	h.SetCriticalAlerts(2)
	h.SetSurvivalMode(true)
	h.SetActiveSignals(3)

	var snap Snapshot
	if err := json.Unmarshal(h.JSON(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.CriticalAlerts != 2 || !snap.SurvivalMode || snap.ActiveSignals != 3 {
		t.Errorf("decoded snapshot %+v", snap)
	}
}
