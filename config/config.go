// Package config loads engine configuration from environment variables.
// Every tunable the pipeline exposes lives here — including the quality-gate
// and pricing thresholds, which are business parameters with no derivation
// and must stay overridable rather than baked in as constants.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Feeds
	FeedMode    string // "binance" or "sim"
	FeedSymbols string // comma-separated exchange symbols, e.g. "BTCUSDT,ETHUSDT"

	// Infrastructure
	MetricsAddr   string
	RedisAddr     string // empty disables the Redis bridge
	RedisPassword string

	// Tick buffer
	BufferCapacity int
	MaxPrice       float64
	RecencyWindow  time.Duration

	// Indicator periods
	EMAFastPeriod int
	EMASlowPeriod int
	RSIPeriod     int

	// Signal quality gates and pricing
	VolatilityMax    float64
	VolumeFloor      float64
	ConfidenceMin    float64
	RiskRewardMin    float64
	MaxActiveSignals int
	ConfirmationsMin int
	TargetPct        float64
	StopPct          float64
	SignalExpiry     time.Duration

	// Lifecycle verification
	VerifyInterval time.Duration
	PriceTimeout   time.Duration
	Notional       float64

	// Reconnection backoff
	ReconnectBase  time.Duration
	ReconnectLimit int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		FeedMode:    getEnv("FEED_MODE", "binance"),
		FeedSymbols: getEnv("FEED_SYMBOLS", "BTCUSDT,ETHUSDT"),

		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		BufferCapacity: getEnvInt("BUFFER_CAPACITY", 200),
		MaxPrice:       getEnvFloat("MAX_PRICE", 10_000_000),
		RecencyWindow:  getEnvDuration("TICK_RECENCY_WINDOW", 5*time.Minute),

		EMAFastPeriod: getEnvInt("EMA_FAST_PERIOD", 20),
		EMASlowPeriod: getEnvInt("EMA_SLOW_PERIOD", 50),
		RSIPeriod:     getEnvInt("RSI_PERIOD", 14),

		VolatilityMax:    getEnvFloat("VOLATILITY_MAX", 0.08),
		VolumeFloor:      getEnvFloat("VOLUME_FLOOR", 1_000_000),
		ConfidenceMin:    getEnvFloat("CONFIDENCE_MIN", 70),
		RiskRewardMin:    getEnvFloat("RISK_REWARD_MIN", 1.5),
		MaxActiveSignals: getEnvInt("MAX_ACTIVE_SIGNALS", 5),
		ConfirmationsMin: getEnvInt("CONFIRMATIONS_MIN", 3),
		TargetPct:        getEnvFloat("TARGET_PCT", 0.02),
		StopPct:          getEnvFloat("STOP_PCT", 0.01),
		SignalExpiry:     getEnvDuration("SIGNAL_EXPIRY", 4*time.Hour),

		VerifyInterval: getEnvDuration("VERIFY_INTERVAL", 30*time.Second),
		PriceTimeout:   getEnvDuration("PRICE_TIMEOUT", 3*time.Second),
		Notional:       getEnvFloat("NOTIONAL_SIZE", 1000),

		ReconnectBase:  getEnvDuration("RECONNECT_BASE_DELAY", 2*time.Second),
		ReconnectLimit: getEnvInt("RECONNECT_MAX_ATTEMPTS", 5),
	}
}

// ParseSymbols splits FeedSymbols into a cleaned slice.
func (c *Config) ParseSymbols() []string {
	parts := strings.Split(c.FeedSymbols, ",")
	syms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		syms = append(syms, strings.ToUpper(p))
	}
	return syms
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
