package signalgen

import (
	"fmt"

	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/model"
)

// Confirmation names, used as keys in Signal.Confirmations.
const (
	ConfirmTrend    = "trend"
	ConfirmMomentum = "momentum"
	ConfirmVolume   = "volume"
	ConfirmSR       = "support_resistance"
	ConfirmPattern  = "pattern"
)

// analysis is the multi-factor view of one symbol's window.
type analysis struct {
	direction model.Action // BUY when EMA fast > slow, SELL otherwise

	trendStrength    float64 // |emaFast-emaSlow| / emaSlow
	momentumStrength float64 // blended RSI distance + MACD alignment, 0..1
	volumeRatio      float64 // last tick volume vs window average
	volatility       float64 // (high-low)/avg over the window
	windowVolume     float64 // summed volume over the window
	patternPresent   bool

	confirmations map[string]bool
	reasoning     []string
}

// analyze runs the multi-factor checks over the tick window and snapshot.
// The window is oldest-first and non-empty; the snapshot is fully ready.
func (g *Generator) analyze(ticks []model.Tick, snap indicator.Snapshot) analysis {
	a := analysis{confirmations: make(map[string]bool, 5)}

	last := ticks[len(ticks)-1]
	price := last.Price

	a.direction = model.ActionBuy
	if snap.EMAFast.Value < snap.EMASlow.Value {
		a.direction = model.ActionSell
	}

	// Window aggregates.
	low, high := price, price
	var volSum float64
	for _, t := range ticks {
		if t.Price < low {
			low = t.Price
		}
		if t.Price > high {
			high = t.Price
		}
		volSum += t.Volume
	}
	avg := (low + high) / 2
	if avg > 0 {
		a.volatility = (high - low) / avg
	}
	a.windowVolume = volSum

	// Trend: EMA spread relative to the slow EMA.
	if snap.EMASlow.Value > 0 {
		spread := snap.EMAFast.Value - snap.EMASlow.Value
		if spread < 0 {
			spread = -spread
		}
		a.trendStrength = spread / snap.EMASlow.Value
	}
	a.confirmations[ConfirmTrend] = a.trendStrength > g.cfg.TrendSpreadMin
	if a.confirmations[ConfirmTrend] {
		a.reasoning = append(a.reasoning,
			fmt.Sprintf("trend: EMA spread %.4f%% exceeds %.4f%%", a.trendStrength*100, g.cfg.TrendSpreadMin*100))
	}

	// Momentum: how far RSI sits from neutral, plus MACD sign alignment.
	rsiDist := (snap.RSI.Value - 50) / 50
	if rsiDist < 0 {
		rsiDist = -rsiDist
	}
	macdAligned := (a.direction == model.ActionBuy && snap.MACD.Value > 0) ||
		(a.direction == model.ActionSell && snap.MACD.Value < 0)
	a.momentumStrength = rsiDist * 0.7
	if macdAligned {
		a.momentumStrength += 0.3
	}
	a.confirmations[ConfirmMomentum] = a.momentumStrength > g.cfg.MomentumMin
	if a.confirmations[ConfirmMomentum] {
		a.reasoning = append(a.reasoning,
			fmt.Sprintf("momentum: strength %.2f (RSI %.1f, MACD aligned %v)", a.momentumStrength, snap.RSI.Value, macdAligned))
	}

	// Volume: last tick against the window baseline.
	if n := len(ticks); n > 0 && volSum > 0 {
		baseline := volSum / float64(n)
		if baseline > 0 {
			a.volumeRatio = last.Volume / baseline
		}
	}
	a.confirmations[ConfirmVolume] = a.volumeRatio > g.cfg.VolumeRatioMin
	if a.confirmations[ConfirmVolume] {
		a.reasoning = append(a.reasoning,
			fmt.Sprintf("volume: %.2fx window baseline", a.volumeRatio))
	}

	// Support/resistance: price near the relevant band edge for the direction.
	var edge float64
	if a.direction == model.ActionBuy {
		edge = low
	} else {
		edge = high
	}
	if price > 0 {
		dist := (price - edge) / price
		if dist < 0 {
			dist = -dist
		}
		a.confirmations[ConfirmSR] = dist <= g.cfg.SRProximity
	}
	if a.confirmations[ConfirmSR] {
		a.reasoning = append(a.reasoning,
			fmt.Sprintf("support/resistance: price %.6f within %.1f%% of band edge %.6f", price, g.cfg.SRProximity*100, edge))
	}

	// Pattern: simple three-tick reversal in the signal's direction.
	a.patternPresent = reversalPattern(ticks, a.direction)
	a.confirmations[ConfirmPattern] = a.patternPresent
	if a.patternPresent {
		a.reasoning = append(a.reasoning, "pattern: three-tick reversal")
	}

	return a
}

// reversalPattern detects a down-up-up sequence for buys (or the mirror for
// sells) over the last four prices.
func reversalPattern(ticks []model.Tick, direction model.Action) bool {
	n := len(ticks)
	if n < 4 {
		return false
	}
	d1 := ticks[n-3].Price - ticks[n-4].Price
	d2 := ticks[n-2].Price - ticks[n-3].Price
	d3 := ticks[n-1].Price - ticks[n-2].Price
	if direction == model.ActionBuy {
		return d1 < 0 && d2 > 0 && d3 > 0
	}
	return d1 > 0 && d2 < 0 && d3 < 0
}

// confidence blends the factor strengths into a 0-100 composite score with
// fixed weights: trend 30, momentum 30, volume 20, pattern 20.
func (g *Generator) confidence(a analysis) float64 {
	trendScore := a.trendStrength / (g.cfg.TrendSpreadMin * 5)
	if trendScore > 1 {
		trendScore = 1
	}
	momentumScore := a.momentumStrength
	if momentumScore > 1 {
		momentumScore = 1
	}
	volumeScore := a.volumeRatio / 2
	if volumeScore > 1 {
		volumeScore = 1
	}
	patternScore := 0.0
	if a.patternPresent {
		patternScore = 1
	}
	return trendScore*30 + momentumScore*30 + volumeScore*20 + patternScore*20
}
