package model

import "strings"

// quoteAliases maps exchange-specific quote assets to their canonical form.
// Stablecoin quotes all collapse to USD so BTCUSDT and BTC-USD share one buffer.
var quoteAliases = map[string]string{
	"USDT": "USD",
	"USDC": "USD",
	"BUSD": "USD",
	"TUSD": "USD",
	"USD":  "USD",
	"EUR":  "EUR",
	"GBP":  "GBP",
	"BTC":  "BTC",
	"ETH":  "ETH",
}

// knownQuotes is the suffix search order for separator-less symbols (BTCUSDT).
// Longer quotes first so ETHBUSD does not match "USD" before "BUSD".
var knownQuotes = []string{"USDT", "USDC", "BUSD", "TUSD", "USD", "EUR", "GBP", "BTC", "ETH"}

// NormalizeSymbol collapses exchange-specific symbol spellings to the canonical
// "BASE/QUOTE" form: "BTC-USD", "btc_usdt" and "BTCUSDT" all become "BTC/USD".
// Returns "" if the symbol cannot be parsed into a base and a quote.
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	for _, sep := range []string{"/", "-", "_", ":"} {
		if i := strings.Index(s, sep); i > 0 {
			return joinPair(s[:i], s[i+len(sep):])
		}
	}

	// No separator — peel a known quote asset off the end.
	for _, q := range knownQuotes {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return joinPair(s[:len(s)-len(q)], q)
		}
	}
	return ""
}

func joinPair(base, quote string) string {
	if base == "" || quote == "" {
		return ""
	}
	if canon, ok := quoteAliases[quote]; ok {
		quote = canon
	}
	return base + "/" + quote
}
