package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SignalStatus is the lifecycle state of a signal. Transitions are monotonic:
// once a signal leaves ACTIVE it never changes again.
type SignalStatus string

const (
	StatusActive  SignalStatus = "ACTIVE"
	StatusWin     SignalStatus = "WIN"
	StatusLoss    SignalStatus = "LOSS"
	StatusExpired SignalStatus = "EXPIRED"
)

// Terminal reports whether the status is a resolution state.
func (s SignalStatus) Terminal() bool { return s != StatusActive }

// CloseReason explains why a signal resolved.
type CloseReason string

const (
	ReasonTargetHit   CloseReason = "TARGET_HIT"
	ReasonStopLossHit CloseReason = "STOP_LOSS_HIT"
	ReasonExpired     CloseReason = "EXPIRED"
)

// Signal is a generated trade recommendation tracked to resolution.
// Symbol, Action, EntryPrice, TargetPrice and StopLoss are immutable after
// creation; Status, CurrentPrice and the PnL fields mutate only while ACTIVE
// and exactly once at resolution.
type Signal struct {
	ID       string  `json:"id"`
	Symbol   string  `json:"symbol"`
	Exchange string  `json:"exchange,omitempty"`
	Action   Action  `json:"action"` // BUY or SELL
	Entry    float64 `json:"entry_price"`
	Target   float64 `json:"target_price"`
	Stop     float64 `json:"stop_loss"`

	Confidence    float64         `json:"confidence"` // 0-100 composite score
	Confirmations map[string]bool `json:"confirmations"`
	Reasoning     []string        `json:"reasoning"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	Status             SignalStatus `json:"status"`
	CurrentPrice       float64      `json:"current_price"`
	RealizedPnL        float64      `json:"realized_pnl"`
	RealizedPnLPercent float64      `json:"realized_pnl_percent"`
	ResolvedAt         time.Time    `json:"resolved_at,omitempty"`
}

// NewSignalID returns a fresh signal identifier.
func NewSignalID() string { return uuid.NewString() }

// RiskReward returns |target-entry| / |entry-stop|, or 0 when stop == entry.
func (s *Signal) RiskReward() float64 {
	risk := s.Entry - s.Stop
	if risk < 0 {
		risk = -risk
	}
	if risk == 0 {
		return 0
	}
	reward := s.Target - s.Entry
	if reward < 0 {
		reward = -reward
	}
	return reward / risk
}

// ConfirmedCount returns how many confirmations are true.
func (s *Signal) ConfirmedCount() int {
	n := 0
	for _, ok := range s.Confirmations {
		if ok {
			n++
		}
	}
	return n
}

// JSON returns the JSON-encoded signal (ignoring errors for hot-path usage).
func (s *Signal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}

// SignalClosed is the payload published when a signal resolves.
type SignalClosed struct {
	Signal    Signal      `json:"signal"`
	Reason    CloseReason `json:"reason"`
	ExitPrice float64     `json:"exit_price"`
}

// JSON returns the JSON-encoded close event.
func (c *SignalClosed) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}
