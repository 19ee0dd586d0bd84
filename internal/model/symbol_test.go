package model

import "testing"

func TestNormalizeSymbol(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC-USD", "BTC/USD"},
		{"BTCUSDT", "BTC/USD"},
		{"btc_usdt", "BTC/USD"},
		{"ETH/USDC", "ETH/USD"},
		{"ethbusd", "ETH/USD"},
		{"SOL:EUR", "SOL/EUR"},
		{"ETHBTC", "ETH/BTC"},
		{" doge-usd ", "DOGE/USD"},
		{"", ""},
		{"USD", ""},
		{"-USD", ""},
	}
	for _, c := range cases {
		if got := NormalizeSymbol(c.in); got != c.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeSymbol_SharedBuffer(t *testing.T) {
	// The same market on different exchanges must collapse to one key.
	spellings := []string{"BTCUSDT", "BTC-USD", "btc/usd", "BTC_USDC"}
	for _, s := range spellings {
		if got := NormalizeSymbol(s); got != "BTC/USD" {
			t.Errorf("NormalizeSymbol(%q) = %q, want BTC/USD", s, got)
		}
	}
}
