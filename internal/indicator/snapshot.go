package indicator

// Periods configures which indicator windows a Snapshot carries.
type Periods struct {
	EMAFast int // trend EMA, default 20
	EMASlow int // trend EMA, default 50
	RSI     int // default 14
}

// DefaultPeriods returns the standard indicator windows.
func DefaultPeriods() Periods {
	return Periods{EMAFast: 20, EMASlow: 50, RSI: 14}
}

// Reading is a single indicator value with its warm-up flag.
type Reading struct {
	Value float64
	Ready bool
}

// Snapshot bundles the indicator readings the decision and signal layers
// consume. Fields below warm-up carry Ready=false, never an error.
type Snapshot struct {
	EMAFast Reading
	EMASlow Reading
	RSI     Reading
	MACD    Reading
}

// Ready reports whether every reading in the snapshot is past warm-up.
func (s Snapshot) Ready() bool {
	return s.EMAFast.Ready && s.EMASlow.Ready && s.RSI.Ready && s.MACD.Ready
}

// Compute evaluates all configured indicators over prices (oldest first).
func Compute(prices []float64, p Periods) Snapshot {
	var snap Snapshot
	snap.EMAFast.Value, snap.EMAFast.Ready = EMA(prices, p.EMAFast)
	snap.EMASlow.Value, snap.EMASlow.Ready = EMA(prices, p.EMASlow)
	snap.RSI.Value, snap.RSI.Ready = RSI(prices, p.RSI)
	snap.MACD.Value, snap.MACD.Ready = MACD(prices)
	return snap
}
