// Package perf derives performance metrics from completed signals. Reports
// are recomputed on demand — always a pure function of the completed-signal
// history, never independently stored.
package perf

import (
	"math"
	"time"

	"signal-systemv1/internal/model"
)

// Report summarizes completed-signal performance.
type Report struct {
	Total   int `json:"total"`
	Wins    int `json:"wins"`
	Losses  int `json:"losses"`
	Expired int `json:"expired"`

	WinRate      float64 `json:"win_rate"`      // wins/total * 100
	TotalPnL     float64 `json:"total_pnl"`     // summed RealizedPnL
	AvgPnL       float64 `json:"avg_pnl"`
	ProfitFactor float64 `json:"profit_factor"` // gross wins / gross losses
	Sharpe       float64 `json:"sharpe"`        // mean/stddev of PnL%
	MaxDrawdown  float64 `json:"max_drawdown"`  // peak-to-trough of cumulative PnL

	AvgDuration time.Duration `json:"avg_duration"`
	FastestWin  time.Duration `json:"fastest_win"`
	SlowestWin  time.Duration `json:"slowest_win"`
}

// Compute builds a report over completed signals (any order-preserving slice;
// drawdown follows the given resolution order).
func Compute(completed []model.Signal) Report {
	var r Report
	r.Total = len(completed)
	if r.Total == 0 {
		return r
	}

	var grossWins, grossLosses float64
	var pnlPcts []float64
	var running, peak float64
	var durSum time.Duration

	for _, sig := range completed {
		switch sig.Status {
		case model.StatusWin:
			r.Wins++
			grossWins += math.Abs(sig.RealizedPnL)
			dur := sig.ResolvedAt.Sub(sig.CreatedAt)
			if r.FastestWin == 0 || dur < r.FastestWin {
				r.FastestWin = dur
			}
			if dur > r.SlowestWin {
				r.SlowestWin = dur
			}
		case model.StatusLoss:
			r.Losses++
			grossLosses += math.Abs(sig.RealizedPnL)
		case model.StatusExpired:
			r.Expired++
		}

		r.TotalPnL += sig.RealizedPnL
		pnlPcts = append(pnlPcts, sig.RealizedPnLPercent)
		durSum += sig.ResolvedAt.Sub(sig.CreatedAt)

		// Drawdown: track the cumulative-PnL peak as signals resolve.
		running += sig.RealizedPnL
		if running > peak {
			peak = running
		}
		if dd := peak - running; dd > r.MaxDrawdown {
			r.MaxDrawdown = dd
		}
	}

	r.WinRate = float64(r.Wins) / float64(r.Total) * 100
	r.AvgPnL = r.TotalPnL / float64(r.Total)
	r.AvgDuration = durSum / time.Duration(r.Total)

	if grossLosses > 0 {
		r.ProfitFactor = grossWins / grossLosses
	} else {
		r.ProfitFactor = grossWins
	}

	r.Sharpe = sharpe(pnlPcts)
	return r
}

// sharpe is mean/stddev over the PnL percents, 0 with fewer than 2 samples or
// zero variance.
func sharpe(pcts []float64) float64 {
	if len(pcts) < 2 {
		return 0
	}
	mean := 0.0
	for _, p := range pcts {
		mean += p
	}
	mean /= float64(len(pcts))

	variance := 0.0
	for _, p := range pcts {
		d := p - mean
		variance += d * d
	}
	variance /= float64(len(pcts))
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}
