package tickstore

import (
	"math"
	"testing"
	"time"

	"signal-systemv1/internal/model"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(capacity int) *Store {
	cfg := DefaultConfig()
	cfg.Capacity = capacity
	s := New(cfg)
	s.now = func() time.Time { return testNow }
	return s
}

func makeTick(symbol string, price float64) model.Tick {
	return model.Tick{
		Symbol:   symbol,
		Exchange: "binance",
		Price:    price,
		Volume:   100,
		TS:       testNow,
	}
}

func TestIngest_CapacityInvariant(t *testing.T) {
	s := newTestStore(10)

	for i := 0; i < 55; i++ {
		tick := makeTick("BTC/USD", 100+float64(i))
		if !s.Ingest(tick) {
			t.Fatalf("tick %d unexpectedly rejected", i)
		}
		if got := s.Len("BTC/USD"); got > 10 {
			t.Fatalf("after %d ingests: len=%d exceeds capacity", i+1, got)
		}
	}

	if got := s.Len("BTC/USD"); got != 10 {
		t.Errorf("expected len=10, got %d", got)
	}

	// FIFO eviction: the survivors are the 10 newest, oldest first.
	recent := s.Recent("BTC/USD", 0)
	if len(recent) != 10 {
		t.Fatalf("expected 10 recent ticks, got %d", len(recent))
	}
	if recent[0].Price != 145 {
		t.Errorf("expected oldest surviving price=145, got %v", recent[0].Price)
	}
	if recent[9].Price != 154 {
		t.Errorf("expected newest price=154, got %v", recent[9].Price)
	}
}

func TestIngest_Validation(t *testing.T) {
	s := newTestStore(10)

	var reasons []string
	s.OnReject = func(reason string) { reasons = append(reasons, reason) }

	bad := []model.Tick{
		{Symbol: "BTC/USD", Price: 0, TS: testNow},
		{Symbol: "BTC/USD", Price: -5, TS: testNow},
		{Symbol: "BTC/USD", Price: math.NaN(), TS: testNow},
		{Symbol: "BTC/USD", Price: math.Inf(1), TS: testNow},
		{Symbol: "BTC/USD", Price: 20_000_000, TS: testNow}, // above ceiling
		{Symbol: "BTC/USD", Price: 100, Volume: -1, TS: testNow},
		{Symbol: "BTC/USD", Price: 100, TS: testNow.Add(-10 * time.Minute)}, // stale
		{Symbol: "BTC/USD", Price: 100, TS: testNow.Add(2 * time.Minute)},   // future
		{Symbol: "", Price: 100, TS: testNow},
	}
	for i, tick := range bad {
		if s.Ingest(tick) {
			t.Errorf("bad tick %d accepted: %+v", i, tick)
		}
	}

	if len(reasons) != len(bad) {
		t.Errorf("expected %d reject reasons, got %d (%v)", len(bad), len(reasons), reasons)
	}
	// Rejected ticks must leave no trace.
	if got := s.Len("BTC/USD"); got != 0 {
		t.Errorf("rejected ticks were stored: len=%d", got)
	}
}

func TestCurrentPrice(t *testing.T) {
	s := newTestStore(10)

	if _, ok := s.CurrentPrice("BTC/USD"); ok {
		t.Error("expected no price for unknown symbol")
	}

	s.Ingest(makeTick("BTC/USD", 100))
	s.Ingest(makeTick("BTC/USD", 105))

	price, ok := s.CurrentPrice("BTC/USD")
	if !ok || price != 105 {
		t.Errorf("expected latest price 105, got %v ok=%v", price, ok)
	}
}

func TestCloses_Order(t *testing.T) {
	s := newTestStore(5)
	for _, p := range []float64{1, 2, 3, 4, 5, 6, 7} {
		s.Ingest(makeTick("ETH/USD", p))
	}

	closes := s.Closes("ETH/USD")
	want := []float64{3, 4, 5, 6, 7}
	if len(closes) != len(want) {
		t.Fatalf("expected %d closes, got %d", len(want), len(closes))
	}
	for i := range want {
		if closes[i] != want[i] {
			t.Errorf("closes[%d] = %v, want %v", i, closes[i], want[i])
		}
	}
}

func TestSymbols_Isolated(t *testing.T) {
	s := newTestStore(10)
	s.Ingest(makeTick("BTC/USD", 100))
	s.Ingest(makeTick("ETH/USD", 50))

	if got := s.Len("BTC/USD"); got != 1 {
		t.Errorf("BTC/USD len=%d, want 1", got)
	}
	if got := s.Len("ETH/USD"); got != 1 {
		t.Errorf("ETH/USD len=%d, want 1", got)
	}
	if syms := s.Symbols(); len(syms) != 2 {
		t.Errorf("expected 2 symbols, got %v", syms)
	}
}
