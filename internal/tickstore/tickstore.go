// Package tickstore keeps a bounded per-symbol history of validated ticks.
// Each symbol gets a fixed circular buffer with FIFO eviction, so memory stays
// constant no matter how long the feeds run. Only ticks that pass validation
// are ever stored; rejects are logged and counted, never propagated.
package tickstore

import (
	"log"
	"math"
	"sync"
	"time"

	"signal-systemv1/internal/model"
)

// Config holds validation and sizing parameters for the store.
type Config struct {
	Capacity      int           // per-symbol buffer size
	MaxPrice      float64       // sanity ceiling — ticks at or above are rejected
	RecencyWindow time.Duration // ticks older than now-window are rejected
	FutureSkew    time.Duration // allowance for feed clocks running ahead
}

// DefaultConfig returns the standard store parameters.
func DefaultConfig() Config {
	return Config{
		Capacity:      200,
		MaxPrice:      10_000_000,
		RecencyWindow: 5 * time.Minute,
		FutureSkew:    30 * time.Second,
	}
}

// Store is the per-symbol tick history. Safe for concurrent use.
type Store struct {
	cfg Config

	mu      sync.RWMutex
	buffers map[string]*ring

	// OnReject, if set, is called with a short reason for every rejected tick.
	OnReject func(reason string)

	// now is swappable for tests.
	now func() time.Time
}

// New creates a store with the given config.
func New(cfg Config) *Store {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 200
	}
	return &Store{
		cfg:     cfg,
		buffers: make(map[string]*ring, 16),
		now:     time.Now,
	}
}

// Ingest validates the tick and appends it to its symbol's buffer.
// Returns false (with no side effect beyond logging) when the tick is invalid.
// The tick's Symbol must already be canonical; raw feed symbols are normalized
// by the feed adapters before reaching the store.
func (s *Store) Ingest(tick model.Tick) bool {
	if reason := s.validate(tick); reason != "" {
		log.Printf("[tickstore] rejected tick %s %s: %s (price=%v ts=%v)",
			tick.Exchange, tick.Symbol, reason, tick.Price, tick.TS)
		if s.OnReject != nil {
			s.OnReject(reason)
		}
		return false
	}

	s.mu.Lock()
	r, ok := s.buffers[tick.Symbol]
	if !ok {
		r = newRing(s.cfg.Capacity)
		s.buffers[tick.Symbol] = r
	}
	r.push(tick)
	s.mu.Unlock()
	return true
}

func (s *Store) validate(tick model.Tick) string {
	if tick.Symbol == "" {
		return "empty symbol"
	}
	if math.IsNaN(tick.Price) || math.IsInf(tick.Price, 0) {
		return "price not finite"
	}
	if tick.Price <= 0 {
		return "price not positive"
	}
	if tick.Price >= s.cfg.MaxPrice {
		return "price above sanity ceiling"
	}
	if tick.Volume < 0 || math.IsNaN(tick.Volume) {
		return "negative volume"
	}
	now := s.now()
	if tick.TS.Before(now.Add(-s.cfg.RecencyWindow)) {
		return "stale timestamp"
	}
	if tick.TS.After(now.Add(s.cfg.FutureSkew)) {
		return "timestamp in the future"
	}
	return ""
}

// Recent returns up to n of the newest ticks for symbol, oldest first.
// n <= 0 returns the whole buffer.
func (s *Store) Recent(symbol string, n int) []model.Tick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.buffers[symbol]
	if !ok {
		return nil
	}
	return r.recent(n)
}

// Closes returns the close-price series for symbol, oldest first.
func (s *Store) Closes(symbol string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.buffers[symbol]
	if !ok {
		return nil
	}
	out := make([]float64, 0, r.n)
	r.each(func(t model.Tick) {
		out = append(out, t.Price)
	})
	return out
}

// CurrentPrice returns the latest stored price for symbol.
func (s *Store) CurrentPrice(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.buffers[symbol]
	if !ok || r.n == 0 {
		return 0, false
	}
	return r.last().Price, true
}

// Len returns the number of ticks currently buffered for symbol.
func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.buffers[symbol]
	if !ok {
		return 0
	}
	return r.n
}

// Symbols returns all symbols with at least one buffered tick.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.buffers))
	for sym, r := range s.buffers {
		if r.n > 0 {
			out = append(out, sym)
		}
	}
	return out
}
