package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"signal-systemv1/internal/model"
)

// SimConn is a credential-free random-walk tick source, a drop-in Conn for
// offline runs and local development. Prices walk +/- Drift per step around
// the configured start price.
type SimConn struct {
	symbols  []string
	interval time.Duration
	drift    float64
	rng      *rand.Rand

	mu     sync.Mutex
	prices map[string]float64
	closed chan struct{}
	done   bool
	next   int
}

// NewSimConn creates a simulator for the given canonical symbols.
// interval is the gap between ticks (default 100ms); seed fixes the walk.
func NewSimConn(symbols []string, startPrice float64, interval time.Duration, seed int64) *SimConn {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	prices := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		prices[sym] = startPrice
	}
	return &SimConn{
		symbols:  symbols,
		interval: interval,
		drift:    0.002,
		rng:      rand.New(rand.NewSource(seed)),
		prices:   prices,
	}
}

func (c *SimConn) Dial(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = make(chan struct{})
	c.done = false
	return nil
}

// ReadTick emits one tick per interval, round-robin over symbols.
func (c *SimConn) ReadTick() (model.Tick, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed == nil {
		return model.Tick{}, fmt.Errorf("sim: not connected")
	}

	select {
	case <-closed:
		return model.Tick{}, fmt.Errorf("sim: connection closed")
	case <-time.After(c.interval):
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sym := c.symbols[c.next%len(c.symbols)]
	c.next++

	step := 1 + (c.rng.Float64()*2-1)*c.drift
	c.prices[sym] *= step

	return model.Tick{
		Symbol:   sym,
		Exchange: "sim",
		Price:    c.prices[sym],
		Volume:   float64(c.rng.Intn(50000) + 10000),
		TS:       time.Now().UTC(),
	}, nil
}

func (c *SimConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed != nil && !c.done {
		close(c.closed)
		c.done = true
	}
	return nil
}
