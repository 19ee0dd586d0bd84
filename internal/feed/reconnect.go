// Package feed wraps exchange feed connections with bounded exponential
// backoff. One ReconnectingClient owns one connection: it dials, streams
// normalized ticks onto the bus, and on error retries with base*2^attempt
// delays until the attempt cap, after which it emits a terminal "failed"
// event and stops — it never terminates the host.
package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"signal-systemv1/internal/bus"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/sched"
)

// Conn is a single exchange feed connection. Implementations are dumb
// transports — all retry policy lives in ReconnectingClient.
type Conn interface {
	// Dial establishes the connection. Must honor ctx cancellation.
	Dial(ctx context.Context) error
	// ReadTick blocks until the next normalized tick or a connection error.
	ReadTick() (model.Tick, error)
	// Close tears the connection down. Safe to call when not connected.
	Close() error
}

// Event is the payload for exchange.<name>.* lifecycle topics.
type Event struct {
	Exchange string    `json:"exchange"`
	State    string    `json:"state"` // connected, disconnected, failed
	Attempt  int       `json:"attempt,omitempty"`
	Err      string    `json:"error,omitempty"`
	TS       time.Time `json:"ts"`
}

// Config holds reconnection parameters for one feed.
type Config struct {
	Exchange    string
	BaseDelay   time.Duration // default 2s
	MaxAttempts int           // default 5
}

// ReconnectingClient supervises a Conn with bounded exponential backoff.
type ReconnectingClient struct {
	cfg   Config
	conn  Conn
	bus   *bus.Bus
	sched sched.Scheduler

	mu      sync.Mutex
	attempt int
	stopped bool
	retry   sched.CancelFunc

	// OnStateChange, if set, observes connected-state transitions (metrics,
	// health).
	OnStateChange func(connected bool)
}

// NewReconnectingClient wraps conn with the retry policy in cfg.
func NewReconnectingClient(cfg Config, conn Conn, b *bus.Bus, s sched.Scheduler) *ReconnectingClient {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &ReconnectingClient{cfg: cfg, conn: conn, bus: b, sched: s}
}

// Start makes the first connection attempt. Dialing and reading happen on
// their own goroutine; Start returns immediately.
func (c *ReconnectingClient) Start(ctx context.Context) {
	go c.connect(ctx)
}

// Stop cancels any pending retry and closes the connection.
func (c *ReconnectingClient) Stop() {
	c.mu.Lock()
	c.stopped = true
	retry := c.retry
	c.mu.Unlock()

	if retry != nil {
		retry()
	}
	c.conn.Close()
}

func (c *ReconnectingClient) connect(ctx context.Context) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	if err := c.conn.Dial(ctx); err != nil {
		log.Printf("[feed] %s dial failed: %v", c.cfg.Exchange, err)
		c.emit("disconnected", 0, err)
		c.backoff(ctx, err)
		return
	}

	c.mu.Lock()
	c.attempt = 0
	c.mu.Unlock()

	log.Printf("[feed] %s connected", c.cfg.Exchange)
	c.emit("connected", 0, nil)
	if c.OnStateChange != nil {
		c.OnStateChange(true)
	}

	c.readLoop(ctx)
}

func (c *ReconnectingClient) readLoop(ctx context.Context) {
	for {
		tick, err := c.conn.ReadTick()
		if err != nil {
			c.conn.Close()
			if c.OnStateChange != nil {
				c.OnStateChange(false)
			}
			c.mu.Lock()
			stopped := c.stopped
			c.mu.Unlock()
			if stopped || ctx.Err() != nil {
				return
			}
			log.Printf("[feed] %s disconnected: %v", c.cfg.Exchange, err)
			c.emit("disconnected", 0, err)
			c.backoff(ctx, err)
			return
		}
		c.bus.Publish(bus.TopicTick, tick)
	}
}

// backoff schedules the next connection attempt, or gives up with a terminal
// "failed" event once the attempt cap is exceeded.
func (c *ReconnectingClient) backoff(ctx context.Context, cause error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()

	if attempt > c.cfg.MaxAttempts {
		log.Printf("[feed] %s giving up after %d attempts", c.cfg.Exchange, c.cfg.MaxAttempts)
		c.emit("failed", attempt-1, cause)
		return
	}

	delay := c.cfg.BaseDelay * (1 << (attempt - 1))
	log.Printf("[feed] %s retrying in %v (attempt %d/%d)", c.cfg.Exchange, delay, attempt, c.cfg.MaxAttempts)

	c.mu.Lock()
	c.retry = c.sched.After(delay, func() { c.connect(ctx) })
	c.mu.Unlock()
}

func (c *ReconnectingClient) emit(state string, attempt int, cause error) {
	ev := Event{
		Exchange: c.cfg.Exchange,
		State:    state,
		Attempt:  attempt,
		TS:       time.Now(),
	}
	if cause != nil {
		ev.Err = cause.Error()
	}
	c.bus.Publish(bus.ExchangeTopic(c.cfg.Exchange, state), ev)
}
