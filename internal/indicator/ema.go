// Package indicator computes technical indicators as pure functions over a
// price series (oldest first). Every function returns (value, ok); ok is false
// below the indicator's warm-up length. The same series always yields the same
// result — there is no hidden state, which is what keeps these independently
// testable.
package indicator

// EMA computes the exponential moving average over prices.
// Seed is the simple average of the first period prices, then the standard
// recurrence ema = price*k + ema*(1-k) with k = 2/(period+1).
// Returns ok=false when fewer than period prices are available.
func EMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}

	sum := 0.0
	for _, p := range prices[:period] {
		sum += p
	}
	ema := sum / float64(period)

	k := 2.0 / float64(period+1)
	for _, p := range prices[period:] {
		ema = p*k + ema*(1-k)
	}
	return ema, true
}
