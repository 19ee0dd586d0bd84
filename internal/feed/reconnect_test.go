package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"signal-systemv1/internal/bus"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/sched"
)

// scriptConn is a scripted Conn: each Dial consumes the next error from
// dialErrs (nil means success), each connection then serves the queued ticks
// and fails the following read.
type scriptConn struct {
	mu       sync.Mutex
	dialErrs []error
	dials    int
	ticks    []model.Tick
	readErr  error
	closes   int
}

func (c *scriptConn) Dial(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dials++
	if len(c.dialErrs) == 0 {
		return nil
	}
	err := c.dialErrs[0]
	c.dialErrs = c.dialErrs[1:]
	return err
}

func (c *scriptConn) ReadTick() (model.Tick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ticks) > 0 {
		tick := c.ticks[0]
		c.ticks = c.ticks[1:]
		return tick, nil
	}
	if c.readErr != nil {
		return model.Tick{}, c.readErr
	}
	return model.Tick{}, errors.New("stream closed")
}

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *scriptConn) dialCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dials
}

// eventLog records every exchange lifecycle event off the bus.
type eventLog struct {
	mu     sync.Mutex
	states []string
}

func (l *eventLog) attach(b *bus.Bus) {
	b.SubscribePrefix(bus.ExchangePrefix, func(_ string, payload interface{}) {
		ev := payload.(Event)
		l.mu.Lock()
		l.states = append(l.states, ev.State)
		l.mu.Unlock()
	})
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.states))
	copy(out, l.states)
	return out
}

func TestReconnect_StreamsTicks(t *testing.T) {
	b := bus.New()
	conn := &scriptConn{ticks: []model.Tick{
		{Symbol: "BTC/USD", Price: 100, TS: time.Now()},
		{Symbol: "BTC/USD", Price: 101, TS: time.Now()},
	}}
	client := NewReconnectingClient(Config{Exchange: "binance"}, conn, b, sched.NewManual(time.Now()))

	var got []model.Tick
	b.Subscribe(bus.TopicTick, func(_ string, payload interface{}) {
		got = append(got, payload.(model.Tick))
	})
	events := &eventLog{}
	events.attach(b)

	client.connect(context.Background())

	if len(got) != 2 || got[1].Price != 101 {
		t.Fatalf("ticks=%+v, want the 2 scripted ticks", got)
	}
	states := events.all()
	if len(states) < 2 || states[0] != "connected" || states[1] != "disconnected" {
		t.Errorf("events=%v, want connected then disconnected", states)
	}
}

func TestReconnect_BackoffSchedule(t *testing.T) {
	b := bus.New()
	clock := sched.NewManual(time.Now())
	conn := &scriptConn{dialErrs: []error{
		errors.New("refused"), errors.New("refused"), errors.New("refused"),
		errors.New("refused"), errors.New("refused"), errors.New("refused"),
	}}
	client := NewReconnectingClient(
		Config{Exchange: "binance", BaseDelay: 2 * time.Second, MaxAttempts: 5},
		conn, b, clock)

	events := &eventLog{}
	events.attach(b)

	client.connect(context.Background())
	if conn.dialCount() != 1 {
		t.Fatalf("dials=%d after initial attempt, want 1", conn.dialCount())
	}

	// Delays double per attempt: 2s, 4s, 8s, 16s, 32s.
	for i, delay := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second} {
		// Just short of the deadline nothing fires.
		clock.Advance(delay - time.Second)
		if conn.dialCount() != i+1 {
			t.Fatalf("retry %d fired early: dials=%d", i+1, conn.dialCount())
		}
		clock.Advance(time.Second)
		if conn.dialCount() != i+2 {
			t.Fatalf("retry %d did not fire: dials=%d", i+1, conn.dialCount())
		}
	}

	// The cap is exhausted: a terminal failed event, no further retries.
	states := events.all()
	if states[len(states)-1] != "failed" {
		t.Errorf("last event=%v, want failed", states)
	}
	clock.Advance(time.Hour)
	if conn.dialCount() != 6 {
		t.Errorf("dials=%d after terminal failure, want 6", conn.dialCount())
	}
}

func TestReconnect_AttemptResetOnSuccess(t *testing.T) {
	b := bus.New()
	clock := sched.NewManual(time.Now())
	// Two dial failures, then a connection that drops immediately.
	conn := &scriptConn{
		dialErrs: []error{errors.New("refused"), errors.New("refused"), nil},
		readErr:  errors.New("connection reset"),
	}
	client := NewReconnectingClient(
		Config{Exchange: "binance", BaseDelay: 2 * time.Second, MaxAttempts: 5},
		conn, b, clock)

	client.connect(context.Background())
	clock.Advance(2 * time.Second) // retry 1 fails
	clock.Advance(4 * time.Second) // retry 2 connects, read drops, backoff rescheduled

	if conn.dialCount() != 3 {
		t.Fatalf("dials=%d, want 3", conn.dialCount())
	}

	// The successful connection reset the counter, so the next delay is the
	// base 2s again rather than the continued 8s.
	clock.Advance(2 * time.Second)
	if conn.dialCount() != 4 {
		t.Errorf("dials=%d, want 4 (retry at base delay after reset)", conn.dialCount())
	}
}

func TestReconnect_ConnectedStateChanges(t *testing.T) {
	b := bus.New()
	conn := &scriptConn{readErr: errors.New("reset")}
	client := NewReconnectingClient(Config{Exchange: "binance"}, conn, b, sched.NewManual(time.Now()))

	var transitions []bool
	client.OnStateChange = func(connected bool) { transitions = append(transitions, connected) }

	client.connect(context.Background())

	if len(transitions) != 2 || !transitions[0] || transitions[1] {
		t.Errorf("transitions=%v, want [true false]", transitions)
	}
	if conn.closes == 0 {
		t.Error("connection not closed after read failure")
	}
}

func TestReconnect_StopCancelsRetry(t *testing.T) {
	b := bus.New()
	clock := sched.NewManual(time.Now())
	conn := &scriptConn{dialErrs: []error{errors.New("refused"), errors.New("refused")}}
	client := NewReconnectingClient(
		Config{Exchange: "binance", BaseDelay: 2 * time.Second, MaxAttempts: 5},
		conn, b, clock)

	client.connect(context.Background())
	client.Stop()

	clock.Advance(time.Minute)
	if conn.dialCount() != 1 {
		t.Errorf("dials=%d after Stop, want 1", conn.dialCount())
	}
}
