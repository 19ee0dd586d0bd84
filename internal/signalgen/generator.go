// Package signalgen turns indicator snapshots into gated, premium trade
// signals. Every candidate runs a multi-factor analysis (trend, momentum,
// volume, support/resistance, pattern) and must clear a fixed sequence of
// quality gates before it is published and handed to the lifecycle tracker.
package signalgen

import (
	"log"
	"time"

	"signal-systemv1/internal/bus"
	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/lifecycle"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/tickstore"
)

// Config holds the analysis thresholds and quality gates. These are tuned
// business parameters, not derived constants — treat them as config.
type Config struct {
	Periods indicator.Periods

	// Factor thresholds.
	TrendSpreadMin float64 // min EMA spread ratio for the trend confirmation, default 0.001
	MomentumMin    float64 // min blended momentum strength, default 0.3
	VolumeRatioMin float64 // min last/baseline volume ratio, default 1.2
	SRProximity    float64 // band-edge proximity, default 0.01

	// Quality gates.
	VolatilityMax    float64 // window volatility ceiling, default 0.08
	VolumeFloor      float64 // window volume floor, default 1,000,000
	ConfidenceMin    float64 // composite score floor, default 70
	RiskRewardMin    float64 // default 1.5
	ConfirmationsMin int     // quorum out of 5, default 3

	// Price construction.
	TargetPct float64       // default 0.02
	StopPct   float64       // default 0.01
	Expiry    time.Duration // default 4h
}

// DefaultConfig returns the standard generator parameters.
func DefaultConfig() Config {
	return Config{
		Periods:          indicator.DefaultPeriods(),
		TrendSpreadMin:   0.001,
		MomentumMin:      0.3,
		VolumeRatioMin:   1.2,
		SRProximity:      0.01,
		VolatilityMax:    0.08,
		VolumeFloor:      1_000_000,
		ConfidenceMin:    70,
		RiskRewardMin:    1.5,
		ConfirmationsMin: 3,
		TargetPct:        0.02,
		StopPct:          0.01,
		Expiry:           4 * time.Hour,
	}
}

// Generator produces signals from the tick store on market updates.
type Generator struct {
	cfg     Config
	store   *tickstore.Store
	tracker *lifecycle.Tracker
	bus     *bus.Bus

	now func() time.Time

	// OnRejected, if set, is called with the failing gate name whenever a
	// candidate is discarded.
	OnRejected func(gate string)
}

// New creates a generator reading from store and handing accepted signals to
// tracker.
func New(cfg Config, store *tickstore.Store, tracker *lifecycle.Tracker, b *bus.Bus) *Generator {
	return &Generator{
		cfg:     cfg,
		store:   store,
		tracker: tracker,
		bus:     b,
		now:     time.Now,
	}
}

// OnMarketUpdate evaluates one symbol after new market data arrives. Returns
// the accepted signal, or nil when any quality gate fails. Gates run in fixed
// order and short-circuit:
//
//  1. volatility below ceiling, window volume above floor
//  2. composite confidence >= floor
//  3. risk/reward >= floor
//  4. fewer than MaxActive signals system-wide
//  5. confirmation quorum
//  6. no existing ACTIVE signal for the symbol
func (g *Generator) OnMarketUpdate(symbol string) *model.Signal {
	ticks := g.store.Recent(symbol, 0)
	if len(ticks) == 0 {
		return nil
	}

	closes := make([]float64, len(ticks))
	for i, t := range ticks {
		closes[i] = t.Price
	}
	snap := indicator.Compute(closes, g.cfg.Periods)
	if !snap.Ready() {
		return nil // still warming up — not a gate failure
	}

	a := g.analyze(ticks, snap)

	if a.volatility >= g.cfg.VolatilityMax {
		return g.reject("volatility")
	}
	if a.windowVolume < g.cfg.VolumeFloor {
		return g.reject("volume_floor")
	}

	conf := g.confidence(a)
	if conf < g.cfg.ConfidenceMin {
		return g.reject("confidence")
	}

	sig := g.buildSignal(symbol, ticks[len(ticks)-1], a, conf)

	if sig.RiskReward() < g.cfg.RiskRewardMin {
		return g.reject("risk_reward")
	}
	if g.tracker.ActiveCount() >= g.trackerMaxActive() {
		return g.reject("max_active")
	}
	if sig.ConfirmedCount() < g.cfg.ConfirmationsMin {
		return g.reject("confirmations")
	}
	if g.tracker.HasActive(symbol) {
		return g.reject("duplicate_symbol")
	}

	// Track re-checks the duplicate and cap invariants under its own lock;
	// a concurrent generation for the same symbol loses here, not above.
	if err := g.tracker.Track(sig); err != nil {
		log.Printf("[signalgen] %s rejected by tracker: %v", symbol, err)
		return g.reject("tracker")
	}

	log.Printf("[signalgen] %s %s signal: entry=%.6f target=%.6f stop=%.6f conf=%.1f confirmations=%d",
		sig.Action, sig.Symbol, sig.Entry, sig.Target, sig.Stop, sig.Confidence, sig.ConfirmedCount())
	if g.bus != nil {
		g.bus.Publish(bus.TopicSignalGenerated, *sig)
	}
	return sig
}

func (g *Generator) buildSignal(symbol string, last model.Tick, a analysis, conf float64) *model.Signal {
	now := g.now()
	entry := last.Price

	sig := &model.Signal{
		ID:            model.NewSignalID(),
		Symbol:        symbol,
		Exchange:      last.Exchange,
		Action:        a.direction,
		Entry:         entry,
		Confidence:    conf,
		Confirmations: a.confirmations,
		Reasoning:     a.reasoning,
		CreatedAt:     now,
		ExpiresAt:     now.Add(g.cfg.Expiry),
		Status:        model.StatusActive,
		CurrentPrice:  entry,
	}
	if a.direction == model.ActionBuy {
		sig.Target = entry * (1 + g.cfg.TargetPct)
		sig.Stop = entry * (1 - g.cfg.StopPct)
	} else {
		sig.Target = entry * (1 - g.cfg.TargetPct)
		sig.Stop = entry * (1 + g.cfg.StopPct)
	}
	return sig
}

func (g *Generator) reject(gate string) *model.Signal {
	if g.OnRejected != nil {
		g.OnRejected(gate)
	}
	return nil
}

// trackerMaxActive mirrors the tracker's cap for the pre-check gate.
func (g *Generator) trackerMaxActive() int {
	return g.tracker.MaxActive()
}
