package model

import (
	"encoding/json"
	"time"
)

// Tick represents a single validated price/volume observation for one symbol.
// Symbol is always in canonical "BASE/QUOTE" form (see NormalizeSymbol).
type Tick struct {
	Symbol   string    `json:"symbol"`
	Exchange string    `json:"exchange"` // source feed name, e.g. "binance"
	Price    float64   `json:"price"`
	Volume   float64   `json:"volume"`
	TS       time.Time `json:"ts"` // UTC timestamp
}

// JSON returns the JSON-encoded tick (ignoring errors for hot-path usage).
func (t *Tick) JSON() []byte {
	b, _ := json.Marshal(t)
	return b
}
