package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signal-systemv1/config"
	"signal-systemv1/internal/bus"
	"signal-systemv1/internal/decision"
	"signal-systemv1/internal/feed"
	"signal-systemv1/internal/health"
	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/lifecycle"
	"signal-systemv1/internal/metrics"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/perf"
	"signal-systemv1/internal/publish"
	"signal-systemv1/internal/sched"
	"signal-systemv1/internal/signalgen"
	"signal-systemv1/internal/tickstore"
)

// storePrices adapts the tick store to the tracker's PriceSource contract.
type storePrices struct {
	store *tickstore.Store
}

func (p *storePrices) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	price, ok := p.store.CurrentPrice(symbol)
	if !ok {
		return 0, fmt.Errorf("no price for %s", symbol)
	}
	return price, nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[signalengine] starting...")

	cfg := config.Load()
	symbols := cfg.ParseSymbols()
	if len(symbols) == 0 {
		log.Fatal("[signalengine] no feed symbols configured")
	}
	log.Printf("[signalengine] feed=%s symbols=%v", cfg.FeedMode, symbols)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Metrics & health ----
	prom := metrics.New()
	status := health.New()
	status.SetModuleHealth("tickstore", 1)
	status.SetModuleHealth("lifecycle", 1)
	status.SetModuleHealth("feed", 1)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, status)
	metricsSrv.Start()

	// ---- Core pipeline ----
	eventBus := bus.New()
	scheduler := sched.NewReal()

	store := tickstore.New(tickstore.Config{
		Capacity:      cfg.BufferCapacity,
		MaxPrice:      cfg.MaxPrice,
		RecencyWindow: cfg.RecencyWindow,
		FutureSkew:    30 * time.Second,
	})
	store.OnReject = func(reason string) {
		prom.TicksRejected.WithLabelValues(reason).Inc()
	}

	tracker := lifecycle.New(lifecycle.Config{
		VerifyInterval: cfg.VerifyInterval,
		PriceTimeout:   cfg.PriceTimeout,
		Notional:       cfg.Notional,
		MaxActive:      cfg.MaxActiveSignals,
	}, eventBus, &storePrices{store: store}, scheduler)
	tracker.OnClosed = func(reason model.CloseReason) {
		prom.SignalsClosed.WithLabelValues(string(reason)).Inc()
		prom.ActiveSignals.Set(float64(tracker.ActiveCount()))
		status.SetActiveSignals(tracker.ActiveCount())
	}
	tracker.OnPriceError = func(string) { prom.PriceQueryErrors.Inc() }
	tracker.OnVerifyDone = func(elapsed time.Duration) {
		prom.VerifyDur.Observe(elapsed.Seconds())
	}

	periods := indicator.Periods{
		EMAFast: cfg.EMAFastPeriod,
		EMASlow: cfg.EMASlowPeriod,
		RSI:     cfg.RSIPeriod,
	}

	engine := decision.New(decision.DefaultConfig(), eventBus)

	genCfg := signalgen.DefaultConfig()
	genCfg.Periods = periods
	genCfg.VolatilityMax = cfg.VolatilityMax
	genCfg.VolumeFloor = cfg.VolumeFloor
	genCfg.ConfidenceMin = cfg.ConfidenceMin
	genCfg.RiskRewardMin = cfg.RiskRewardMin
	genCfg.ConfirmationsMin = cfg.ConfirmationsMin
	genCfg.TargetPct = cfg.TargetPct
	genCfg.StopPct = cfg.StopPct
	genCfg.Expiry = cfg.SignalExpiry
	generator := signalgen.New(genCfg, store, tracker, eventBus)
	generator.OnRejected = func(gate string) {
		prom.SignalsGated.WithLabelValues(gate).Inc()
	}

	// Tick events drive the whole pipeline: buffer, decide, generate.
	eventBus.Subscribe(bus.TopicTick, func(_ string, payload interface{}) {
		tick, ok := payload.(model.Tick)
		if !ok {
			return
		}
		if !store.Ingest(tick) {
			return
		}
		prom.TicksIngested.Inc()
		status.TickSeen(tick.TS)

		snap := indicator.Compute(store.Closes(tick.Symbol), periods)
		d := engine.Decide(tick.Symbol, snap, status.Snapshot())
		prom.DecisionsTotal.WithLabelValues(string(d.Type), string(d.Action)).Inc()

		if generator.OnMarketUpdate(tick.Symbol) != nil {
			prom.SignalsTotal.Inc()
			prom.ActiveSignals.Set(float64(tracker.ActiveCount()))
			status.SetActiveSignals(tracker.ActiveCount())
		}
	})

	// ---- Redis bridge (optional) ----
	if cfg.RedisAddr != "" {
		bridge, err := publish.New(ctx, publish.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[signalengine] WARNING: redis bridge disabled: %v", err)
		} else {
			bridge.OnPublish = func() { prom.RedisPublishes.Inc() }
			bridge.OnError = func() { prom.RedisPublishErrors.Inc() }
			bridge.Breaker().OnStateChange = func(from, to publish.State) {
				log.Printf("[signalengine] redis breaker %s -> %s", from, to)
				prom.RedisBreakerState.Set(float64(to))
			}
			bridge.Attach(eventBus)
			go bridge.Run(ctx)
			log.Println("[signalengine] redis bridge ready")
		}
	}

	// ---- Feeds ----
	feedCfg := feed.Config{
		Exchange:    cfg.FeedMode,
		BaseDelay:   cfg.ReconnectBase,
		MaxAttempts: cfg.ReconnectLimit,
	}
	var conn feed.Conn
	switch cfg.FeedMode {
	case "sim":
		canonical := make([]string, 0, len(symbols))
		for _, s := range symbols {
			if c := model.NormalizeSymbol(s); c != "" {
				canonical = append(canonical, c)
			}
		}
		conn = feed.NewSimConn(canonical, 50000, 100*time.Millisecond, time.Now().UnixNano())
	default:
		var err error
		conn, err = feed.NewBinanceConn(symbols)
		if err != nil {
			log.Fatalf("[signalengine] feed setup failed: %v", err)
		}
	}

	client := feed.NewReconnectingClient(feedCfg, conn, eventBus, scheduler)
	client.OnStateChange = func(connected bool) {
		status.SetFeedConnected(cfg.FeedMode, connected)
		if connected {
			status.SetModuleHealth("feed", 1)
		} else {
			status.SetModuleHealth("feed", 0)
			prom.FeedReconnects.WithLabelValues(cfg.FeedMode).Inc()
		}
	}
	eventBus.Subscribe(bus.ExchangeTopic(cfg.FeedMode, "failed"), func(string, interface{}) {
		prom.FeedFailures.WithLabelValues(cfg.FeedMode).Inc()
		status.SetCriticalAlerts(1)
	})
	client.Start(ctx)

	// ---- Periodic passes ----
	tracker.Start(ctx)
	stopSystem := scheduler.Every(time.Minute, func() {
		d := engine.DecideSystem(status.Snapshot())
		prom.DecisionsTotal.WithLabelValues(string(d.Type), string(d.Action)).Inc()
	})
	stopReport := scheduler.Every(5*time.Minute, func() {
		r := perf.Compute(tracker.Completed())
		if r.Total == 0 {
			return
		}
		log.Printf("[signalengine] performance: total=%d winRate=%.1f%% pnl=%.2f profitFactor=%.2f maxDD=%.2f",
			r.Total, r.WinRate, r.TotalPnL, r.ProfitFactor, r.MaxDrawdown)
	})

	log.Println("[signalengine] pipeline running")
	<-sigCh
	log.Println("[signalengine] shutting down...")

	cancel()
	client.Stop()
	tracker.Stop()
	stopSystem()
	stopReport()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)
	log.Println("[signalengine] bye")
}
