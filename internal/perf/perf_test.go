package perf

import (
	"math"
	"testing"
	"time"

	"signal-systemv1/internal/model"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func done(status model.SignalStatus, pnl, pnlPct float64, dur time.Duration) model.Signal {
	return model.Signal{
		ID:                 "sig",
		Symbol:             "BTC/USD",
		Action:             model.ActionBuy,
		Status:             status,
		RealizedPnL:        pnl,
		RealizedPnLPercent: pnlPct,
		CreatedAt:          t0,
		ResolvedAt:         t0.Add(dur),
	}
}

func TestCompute_Empty(t *testing.T) {
	r := Compute(nil)
	if r.Total != 0 || r.WinRate != 0 || r.ProfitFactor != 0 {
		t.Errorf("empty report not zeroed: %+v", r)
	}
}

func TestCompute_Counts(t *testing.T) {
	completed := []model.Signal{
		done(model.StatusWin, 20, 2, time.Hour),
		done(model.StatusLoss, -10, -1, 2*time.Hour),
		done(model.StatusWin, 20, 2, 30*time.Minute),
		done(model.StatusExpired, 5, 0.5, 4*time.Hour),
	}
	r := Compute(completed)

	if r.Total != 4 || r.Wins != 2 || r.Losses != 1 || r.Expired != 1 {
		t.Errorf("counts total=%d wins=%d losses=%d expired=%d", r.Total, r.Wins, r.Losses, r.Expired)
	}
	if r.WinRate != 50 {
		t.Errorf("winRate=%v, want 50", r.WinRate)
	}
	if r.TotalPnL != 35 {
		t.Errorf("totalPnL=%v, want 35", r.TotalPnL)
	}
	if r.AvgPnL != 8.75 {
		t.Errorf("avgPnL=%v, want 8.75", r.AvgPnL)
	}
}

func TestCompute_ProfitFactor(t *testing.T) {
	completed := []model.Signal{
		done(model.StatusWin, 100, 10, time.Hour),
		done(model.StatusWin, 50, 5, time.Hour),
		done(model.StatusWin, 50, 5, time.Hour),
		done(model.StatusLoss, -40, -4, time.Hour),
		done(model.StatusLoss, -60, -6, time.Hour),
	}
	r := Compute(completed)
	if r.ProfitFactor != 2 { // 200 gross wins / 100 gross losses
		t.Errorf("profitFactor=%v, want 2", r.ProfitFactor)
	}
}

func TestCompute_ProfitFactorNoLosses(t *testing.T) {
	completed := []model.Signal{
		done(model.StatusWin, 30, 3, time.Hour),
		done(model.StatusWin, 20, 2, time.Hour),
	}
	r := Compute(completed)
	if r.ProfitFactor != 50 {
		t.Errorf("profitFactor=%v, want gross wins 50 when there are no losses", r.ProfitFactor)
	}
}

func TestCompute_Drawdown(t *testing.T) {
	// Cumulative PnL: 50, 30, 10, 40 — peak 50, trough 10.
	completed := []model.Signal{
		done(model.StatusWin, 50, 5, time.Hour),
		done(model.StatusLoss, -20, -2, time.Hour),
		done(model.StatusLoss, -20, -2, time.Hour),
		done(model.StatusWin, 30, 3, time.Hour),
	}
	r := Compute(completed)
	if r.MaxDrawdown != 40 {
		t.Errorf("maxDrawdown=%v, want 40", r.MaxDrawdown)
	}
}

func TestCompute_Durations(t *testing.T) {
	completed := []model.Signal{
		done(model.StatusWin, 20, 2, 30*time.Minute),
		done(model.StatusWin, 20, 2, 3*time.Hour),
		done(model.StatusLoss, -10, -1, 10*time.Minute), // fast loss must not count
	}
	r := Compute(completed)

	if r.FastestWin != 30*time.Minute {
		t.Errorf("fastestWin=%v, want 30m", r.FastestWin)
	}
	if r.SlowestWin != 3*time.Hour {
		t.Errorf("slowestWin=%v, want 3h", r.SlowestWin)
	}
	want := (30*time.Minute + 3*time.Hour + 10*time.Minute) / 3
	if r.AvgDuration != want {
		t.Errorf("avgDuration=%v, want %v", r.AvgDuration, want)
	}
}

func TestSharpe(t *testing.T) {
	if got := sharpe(nil); got != 0 {
		t.Errorf("sharpe(nil)=%v, want 0", got)
	}
	if got := sharpe([]float64{5}); got != 0 {
		t.Errorf("sharpe 1 sample=%v, want 0", got)
	}
	if got := sharpe([]float64{2, 2, 2}); got != 0 {
		t.Errorf("sharpe zero variance=%v, want 0", got)
	}

	// mean 1, population stddev 2.
	got := sharpe([]float64{3, -1, 3, -1})
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("sharpe=%v, want 0.5", got)
	}

	if got := sharpe([]float64{-3, 1, -3, 1}); got >= 0 {
		t.Errorf("sharpe=%v, want negative for losing history", got)
	}
}
