package bus

// Well-known topics. Feed lifecycle topics are built per exchange with the
// Exchange* helpers, e.g. "exchange.binance.disconnected".
const (
	TopicTick            = "tick"
	TopicSignalGenerated = "signal.generated"
	TopicSignalClosed    = "signal.closed"

	DecisionPrefix = "decision." // + decision type: decision.trading, decision.system
	ExchangePrefix = "exchange."
)

// DecisionTopic returns the topic for a decision of the given type.
func DecisionTopic(decisionType string) string {
	return DecisionPrefix + decisionType
}

// ExchangeTopic returns "exchange.<name>.<state>".
func ExchangeTopic(exchange, state string) string {
	return ExchangePrefix + exchange + "." + state
}
