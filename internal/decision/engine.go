// Package decision maps indicator snapshots and coarse system health to
// scored, immutable Decisions. The engine is pure threshold logic — the only
// state it keeps is a bounded append-only history of everything it decided.
package decision

import (
	"fmt"
	"sync"
	"time"

	"signal-systemv1/internal/bus"
	"signal-systemv1/internal/health"
	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/model"
)

// Config holds the rule thresholds.
type Config struct {
	RSIBuyBelow   float64 // oversold floor for buys, default 30
	RSISellAbove  float64 // overbought ceiling for sells, default 70
	BaseConf      float64 // starting confidence for executing decisions, default 0.7
	SystemExecMin float64 // system-decision confidence floor to execute, default 0.5
	HistoryCap    int     // retained decisions, default 500
}

// DefaultConfig returns the standard rule thresholds.
func DefaultConfig() Config {
	return Config{
		RSIBuyBelow:   30,
		RSISellAbove:  70,
		BaseConf:      0.7,
		SystemExecMin: 0.5,
		HistoryCap:    500,
	}
}

// Engine evaluates the decision rules and publishes executing decisions.
type Engine struct {
	cfg Config
	bus *bus.Bus

	mu      sync.Mutex
	history []model.Decision

	now func() time.Time
}

// New creates a decision engine publishing on b.
func New(cfg Config, b *bus.Bus) *Engine {
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = 500
	}
	return &Engine{cfg: cfg, bus: b, now: time.Now}
}

// Decide evaluates the trading rules for one symbol:
//
//	BUY  when EMA20 > EMA50 AND RSI < 30 AND MACD > 0
//	SELL when EMA20 < EMA50 AND RSI > 70 AND MACD < 0
//
// and HOLD otherwise, including whenever any required indicator is still
// warming up. Executing decisions are published on "decision.trading".
func (e *Engine) Decide(symbol string, snap indicator.Snapshot, h health.Snapshot) model.Decision {
	d := model.Decision{
		ID:     model.NewDecisionID(),
		Type:   model.DecisionTrading,
		Symbol: symbol,
		Action: model.ActionHold,
		TS:     e.now(),
	}

	if !snap.Ready() {
		d.Reasoning = "insufficient indicator history"
		return e.record(d)
	}

	emaFast, emaSlow := snap.EMAFast.Value, snap.EMASlow.Value
	rsi, macd := snap.RSI.Value, snap.MACD.Value

	switch {
	case emaFast > emaSlow && rsi < e.cfg.RSIBuyBelow && macd > 0:
		d.Action = model.ActionBuy
		d.Confidence = e.score(e.cfg.RSIBuyBelow-rsi, emaFast, emaSlow, macd > 0)
		d.ShouldExecute = true
		d.Reasoning = fmt.Sprintf("uptrend EMA %.4f>%.4f, oversold RSI %.1f, MACD %.4f>0",
			emaFast, emaSlow, rsi, macd)
	case emaFast < emaSlow && rsi > e.cfg.RSISellAbove && macd < 0:
		d.Action = model.ActionSell
		d.Confidence = e.score(rsi-e.cfg.RSISellAbove, emaFast, emaSlow, macd < 0)
		d.ShouldExecute = true
		d.Reasoning = fmt.Sprintf("downtrend EMA %.4f<%.4f, overbought RSI %.1f, MACD %.4f<0",
			emaFast, emaSlow, rsi, macd)
	default:
		d.Reasoning = fmt.Sprintf("no edge: EMA %.4f/%.4f RSI %.1f MACD %.4f",
			emaFast, emaSlow, rsi, macd)
	}

	if d.ShouldExecute && h.SurvivalMode {
		d.ShouldExecute = false
		d.Reasoning += "; blocked: survival mode active"
	}

	return e.record(d)
}

// score builds the trading confidence: base, plus a bonus proportional to how
// far RSI sits past its threshold, plus a capped EMA-spread bonus, plus a
// small bonus when the MACD sign agrees. Clamped to [0,1].
func (e *Engine) score(rsiEdge, emaFast, emaSlow float64, macdAgrees bool) float64 {
	conf := e.cfg.BaseConf
	conf += rsiEdge / 100

	spread := emaFast - emaSlow
	if spread < 0 {
		spread = -spread
	}
	if emaSlow > 0 {
		bonus := spread / emaSlow
		if bonus > 0.1 {
			bonus = 0.1
		}
		conf += bonus
	}

	if macdAgrees {
		conf += 0.05
	}
	return clamp01(conf)
}

// DecideSystem evaluates the system-level path: confidence starts from the
// aggregate module health, is penalized 0.2 per active critical alert, and is
// scaled to 30% when survival mode is set. Executing decisions are published
// on "decision.system".
func (e *Engine) DecideSystem(h health.Snapshot) model.Decision {
	conf := h.AvgModuleHealth * (1 - float64(h.CriticalAlerts)*0.2)
	if h.SurvivalMode {
		conf *= 0.3
	}
	conf = clamp01(conf)

	d := model.Decision{
		ID:         model.NewDecisionID(),
		Type:       model.DecisionSystem,
		Action:     model.ActionHold,
		Confidence: conf,
		Reasoning: fmt.Sprintf("health=%.2f criticalAlerts=%d survival=%v",
			h.AvgModuleHealth, h.CriticalAlerts, h.SurvivalMode),
		TS: e.now(),
	}
	d.ShouldExecute = conf >= e.cfg.SystemExecMin
	return e.record(d)
}

// record appends to the bounded history and publishes executing decisions.
func (e *Engine) record(d model.Decision) model.Decision {
	e.mu.Lock()
	e.history = append(e.history, d)
	if over := len(e.history) - e.cfg.HistoryCap; over > 0 {
		e.history = e.history[over:]
	}
	e.mu.Unlock()

	if d.ShouldExecute && e.bus != nil {
		e.bus.Publish(bus.DecisionTopic(string(d.Type)), d)
	}
	return d
}

// History returns up to n of the most recent decisions, newest first.
func (e *Engine) History(n int) []model.Decision {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n <= 0 || n > len(e.history) {
		n = len(e.history)
	}
	out := make([]model.Decision, n)
	for i := 0; i < n; i++ {
		out[i] = e.history[len(e.history)-1-i]
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
