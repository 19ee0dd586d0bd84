// Package lifecycle tracks every ACTIVE signal against live prices until it
// resolves. The state machine per signal is ACTIVE → {WIN, LOSS, EXPIRED};
// terminal states are final. A periodic verification pass re-evaluates each
// active signal independently — one symbol's price-query failure never blocks
// the rest of the pass.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"signal-systemv1/internal/bus"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/sched"
)

// PriceSource answers "what is this symbol trading at right now". Queries must
// honor the context deadline; the tracker bounds every call with a timeout.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// Config holds tracker parameters.
type Config struct {
	VerifyInterval time.Duration // default 30s
	PriceTimeout   time.Duration // per-signal price query bound, default 3s
	Notional       float64       // reporting position size, default 1000
	MaxActive      int           // system-wide ACTIVE signal cap, default 5
}

// DefaultConfig returns the standard tracker parameters.
func DefaultConfig() Config {
	return Config{
		VerifyInterval: 30 * time.Second,
		PriceTimeout:   3 * time.Second,
		Notional:       1000,
		MaxActive:      5,
	}
}

// Tracker owns all active signals and the completed-signal history.
type Tracker struct {
	cfg    Config
	bus    *bus.Bus
	prices PriceSource
	sched  sched.Scheduler

	mu        sync.Mutex
	active    map[string]*model.Signal // keyed by symbol
	completed []model.Signal

	cancel sched.CancelFunc
	now    func() time.Time

	// Optional instrumentation hooks.
	OnClosed     func(reason model.CloseReason)
	OnPriceError func(symbol string)
	OnVerifyDone func(elapsed time.Duration)
}

// ErrDuplicateActive is returned by Track when the symbol already has an
// ACTIVE signal.
var ErrDuplicateActive = errors.New("active signal already exists for symbol")

// ErrMaxActive is returned by Track when the system-wide active cap is reached.
var ErrMaxActive = errors.New("max active signals reached")

// New creates a tracker. It does not start verifying until Start is called.
func New(cfg Config, b *bus.Bus, prices PriceSource, s sched.Scheduler) *Tracker {
	if cfg.VerifyInterval <= 0 {
		cfg.VerifyInterval = 30 * time.Second
	}
	if cfg.MaxActive <= 0 {
		cfg.MaxActive = 5
	}
	return &Tracker{
		cfg:    cfg,
		bus:    b,
		prices: prices,
		sched:  s,
		active: make(map[string]*model.Signal),
		now:    time.Now,
	}
}

// Start schedules the periodic verification pass.
func (t *Tracker) Start(ctx context.Context) {
	t.cancel = t.sched.Every(t.cfg.VerifyInterval, func() {
		t.Verify(ctx)
	})
	log.Printf("[lifecycle] verification running every %v", t.cfg.VerifyInterval)
}

// Stop cancels the verification timer.
func (t *Tracker) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Track adopts a freshly generated signal. The duplicate-symbol and max-active
// checks happen under the same lock as the insert, so signal creation and
// resolution are serialized and "at most one ACTIVE signal per symbol" holds
// across any interleaving.
func (t *Tracker) Track(sig *model.Signal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.active[sig.Symbol]; exists {
		return fmt.Errorf("track %s: %w", sig.Symbol, ErrDuplicateActive)
	}
	if len(t.active) >= t.cfg.MaxActive {
		return fmt.Errorf("track %s: %w", sig.Symbol, ErrMaxActive)
	}
	sig.Status = model.StatusActive
	t.active[sig.Symbol] = sig
	return nil
}

// MaxActive returns the system-wide ACTIVE signal cap.
func (t *Tracker) MaxActive() int { return t.cfg.MaxActive }

// HasActive reports whether symbol currently has an ACTIVE signal.
func (t *Tracker) HasActive(symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[symbol]
	return ok
}

// ActiveCount returns the number of ACTIVE signals system-wide.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Active returns copies of all ACTIVE signals.
func (t *Tracker) Active() []model.Signal {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Signal, 0, len(t.active))
	for _, sig := range t.active {
		out = append(out, *sig)
	}
	return out
}

// Completed returns a copy of the completed-signal history, oldest first.
func (t *Tracker) Completed() []model.Signal {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Signal, len(t.completed))
	copy(out, t.completed)
	return out
}

// Verify runs one verification pass over all ACTIVE signals. Each signal is
// evaluated in isolation: a failed price query logs, counts, and moves on.
func (t *Tracker) Verify(ctx context.Context) {
	start := t.now()

	t.mu.Lock()
	symbols := make([]string, 0, len(t.active))
	for sym := range t.active {
		symbols = append(symbols, sym)
	}
	t.mu.Unlock()

	for _, sym := range symbols {
		if ctx.Err() != nil {
			return
		}
		t.verifyOne(ctx, sym)
	}

	if t.OnVerifyDone != nil {
		t.OnVerifyDone(t.now().Sub(start))
	}
}

func (t *Tracker) verifyOne(ctx context.Context, symbol string) {
	qctx := ctx
	if t.cfg.PriceTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, t.cfg.PriceTimeout)
		defer cancel()
	}

	price, err := t.prices.CurrentPrice(qctx, symbol)
	if err != nil {
		log.Printf("[lifecycle] price query failed for %s, skipping this pass: %v", symbol, err)
		if t.OnPriceError != nil {
			t.OnPriceError(symbol)
		}
		return
	}

	t.mu.Lock()
	sig, ok := t.active[symbol]
	if !ok || sig.Status.Terminal() {
		// Resolved between the snapshot and now — nothing to do.
		t.mu.Unlock()
		return
	}

	now := t.now()
	reason, exit, resolved := exitCondition(sig, price, now)
	if !resolved {
		sig.CurrentPrice = price
		sig.RealizedPnLPercent = pnlPercent(sig, price)
		sig.RealizedPnL = sig.RealizedPnLPercent / 100 * t.cfg.Notional
		t.mu.Unlock()
		return
	}

	t.resolveLocked(sig, reason, exit, now)
	closed := model.SignalClosed{Signal: *sig, Reason: reason, ExitPrice: exit}
	t.mu.Unlock()

	log.Printf("[lifecycle] signal %s %s %s resolved %s at %.6f (pnl %.2f%%)",
		sig.ID, sig.Action, sig.Symbol, sig.Status, exit, sig.RealizedPnLPercent)
	if t.OnClosed != nil {
		t.OnClosed(reason)
	}
	if t.bus != nil {
		t.bus.Publish(bus.TopicSignalClosed, closed)
	}
}

// exitCondition evaluates the exit rules in fixed priority: expiry first, then
// target, then stop. Returns resolved=false when the signal stays ACTIVE.
func exitCondition(sig *model.Signal, price float64, now time.Time) (model.CloseReason, float64, bool) {
	if !now.Before(sig.ExpiresAt) {
		return model.ReasonExpired, price, true
	}
	if sig.Action == model.ActionBuy {
		if price >= sig.Target {
			return model.ReasonTargetHit, price, true
		}
		if price <= sig.Stop {
			return model.ReasonStopLossHit, price, true
		}
	} else {
		if price <= sig.Target {
			return model.ReasonTargetHit, price, true
		}
		if price >= sig.Stop {
			return model.ReasonStopLossHit, price, true
		}
	}
	return "", 0, false
}

// resolveLocked finalizes the signal and moves it to the completed set.
// Caller holds t.mu.
func (t *Tracker) resolveLocked(sig *model.Signal, reason model.CloseReason, exit float64, now time.Time) {
	switch reason {
	case model.ReasonTargetHit:
		sig.Status = model.StatusWin
	case model.ReasonStopLossHit:
		sig.Status = model.StatusLoss
	default:
		sig.Status = model.StatusExpired
	}
	sig.CurrentPrice = exit
	sig.ResolvedAt = now
	sig.RealizedPnLPercent = pnlPercent(sig, exit)
	sig.RealizedPnL = sig.RealizedPnLPercent / 100 * t.cfg.Notional

	delete(t.active, sig.Symbol)
	t.completed = append(t.completed, *sig)
}

// pnlPercent returns (exit-entry)/entry*100 for BUY, negated for SELL.
func pnlPercent(sig *model.Signal, exit float64) float64 {
	pct := (exit - sig.Entry) / sig.Entry * 100
	if sig.Action == model.ActionSell {
		pct = -pct
	}
	return pct
}
