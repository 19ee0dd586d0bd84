package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DecisionType classifies the rule path that produced a decision.
type DecisionType string

const (
	DecisionTrading DecisionType = "trading"
	DecisionRisk    DecisionType = "risk"
	DecisionSystem  DecisionType = "system"
)

// Action represents a trading action.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Decision is one immutable rule-engine evaluation. Confidence is in [0,1].
type Decision struct {
	ID            string       `json:"id"`
	Type          DecisionType `json:"type"`
	Symbol        string       `json:"symbol,omitempty"`
	Action        Action       `json:"action"`
	Confidence    float64      `json:"confidence"`
	ShouldExecute bool         `json:"should_execute"`
	Reasoning     string       `json:"reasoning"`
	TS            time.Time    `json:"ts"`
}

// NewDecisionID returns a fresh decision identifier.
func NewDecisionID() string { return uuid.NewString() }

// JSON returns the JSON-encoded decision (ignoring errors for hot-path usage).
func (d *Decision) JSON() []byte {
	b, _ := json.Marshal(d)
	return b
}
