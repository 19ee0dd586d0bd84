// Package publish mirrors pipeline events onto Redis pub/sub channels for
// external collaborators (dashboards, notifiers). The bridge is strictly
// one-way and carries no persistence; if Redis is down the circuit breaker
// trips and events are dropped, never buffered to disk.
package publish

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"signal-systemv1/internal/bus"
)

// channelPrefix namespaces pipeline channels in Redis, e.g. the topic
// "signal.closed" is published on "pub:signal:closed".
const channelPrefix = "pub:"

// Config holds Redis bridge parameters.
type Config struct {
	Addr     string
	Password string

	QueueSize       int           // in-memory event queue, default 1024
	BreakerFailures int           // consecutive failures to trip, default 5
	BreakerReset    time.Duration // open→half-open delay, default 10s
}

// Bridge forwards bus events to Redis off the publisher's goroutine.
type Bridge struct {
	rdb     *goredis.Client
	breaker *CircuitBreaker
	queue   chan outbound

	// Optional instrumentation hooks.
	OnPublish func()
	OnError   func()
	OnDrop    func()
}

type outbound struct {
	channel string
	payload []byte
}

// New connects to Redis and returns a bridge, or an error when Redis is
// unreachable at startup.
func New(ctx context.Context, cfg Config) (*Bridge, error) {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerReset <= 0 {
		cfg.BreakerReset = 10 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	b := &Bridge{
		rdb:     rdb,
		breaker: NewCircuitBreaker(cfg.BreakerFailures, cfg.BreakerReset),
		queue:   make(chan outbound, cfg.QueueSize),
	}
	b.breaker.OnStateChange = func(from, to State) {
		log.Printf("[publish] redis breaker %s -> %s", from, to)
	}
	return b, nil
}

// Breaker exposes the circuit breaker (for metrics wiring).
func (b *Bridge) Breaker() *CircuitBreaker { return b.breaker }

// Attach subscribes the bridge to every outward-facing topic prefix on the
// bus. Events are queued and shipped by Run; a full queue drops the event so
// a Redis stall never delays the pipeline.
func (b *Bridge) Attach(eb *bus.Bus) {
	handler := func(topic string, payload interface{}) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		select {
		case b.queue <- outbound{channel: channelFor(topic), payload: data}:
		default:
			if b.OnDrop != nil {
				b.OnDrop()
			}
		}
	}
	eb.SubscribePrefix("signal.", handler)
	eb.SubscribePrefix("decision.", handler)
	eb.SubscribePrefix("exchange.", handler)
}

// Run ships queued events until ctx is done.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.rdb.Close()
			return
		case out := <-b.queue:
			err := b.breaker.Execute(func() error {
				pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				return b.rdb.Publish(pctx, out.channel, out.payload).Err()
			})
			if err != nil {
				if err != ErrCircuitOpen {
					log.Printf("[publish] redis publish %s failed: %v", out.channel, err)
				}
				if b.OnError != nil {
					b.OnError()
				}
				continue
			}
			if b.OnPublish != nil {
				b.OnPublish()
			}
		}
	}
}

func channelFor(topic string) string {
	return channelPrefix + strings.ReplaceAll(topic, ".", ":")
}
