package indicator

// Standard MACD component periods.
const (
	macdFast = 12
	macdSlow = 26
)

// MACD computes EMA(12) - EMA(26) over prices.
// Returns ok=false when either EMA is below warm-up.
func MACD(prices []float64) (float64, bool) {
	fast, okFast := EMA(prices, macdFast)
	slow, okSlow := EMA(prices, macdSlow)
	if !okFast || !okSlow {
		return 0, false
	}
	return fast - slow, true
}
