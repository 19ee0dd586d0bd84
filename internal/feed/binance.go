package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"signal-systemv1/internal/model"
)

const (
	binanceStreamURL  = "wss://stream.binance.com:9443/stream"
	binanceReadWindow = 60 * time.Second
)

// binanceEnvelope is the combined-stream wrapper Binance sends.
type binanceEnvelope struct {
	Stream string       `json:"stream"`
	Data   binanceTrade `json:"data"`
}

type binanceTrade struct {
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	TradeTime int64  `json:"T"` // epoch milliseconds
}

// BinanceConn streams trades for a set of symbols over the Binance combined
// trade stream. Symbols are given in exchange form ("BTCUSDT") and ticks come
// out with canonical symbols ("BTC/USD").
type BinanceConn struct {
	symbols []string
	url     string
	ws      *websocket.Conn
}

// NewBinanceConn builds a connection for the given exchange symbols.
func NewBinanceConn(symbols []string) (*BinanceConn, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("binance feed requires at least one symbol")
	}
	streams := make([]string, len(symbols))
	for i, sym := range symbols {
		streams[i] = strings.ToLower(sym) + "@trade"
	}
	return &BinanceConn{
		symbols: symbols,
		url:     binanceStreamURL + "?streams=" + strings.Join(streams, "/"),
	}, nil
}

func (c *BinanceConn) Dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("binance dial: %w", err)
	}
	ws.SetReadLimit(1 << 20)
	ws.SetReadDeadline(time.Now().Add(binanceReadWindow))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(binanceReadWindow))
		return nil
	})
	c.ws = ws
	return nil
}

func (c *BinanceConn) ReadTick() (model.Tick, error) {
	for {
		var env binanceEnvelope
		if err := c.ws.ReadJSON(&env); err != nil {
			return model.Tick{}, fmt.Errorf("binance read: %w", err)
		}
		c.ws.SetReadDeadline(time.Now().Add(binanceReadWindow))

		tick, err := parseBinanceTrade(env.Data)
		if err != nil {
			// Malformed message — skip it, keep the stream alive.
			continue
		}
		return tick, nil
	}
}

func (c *BinanceConn) Close() error {
	if c.ws == nil {
		return nil
	}
	return c.ws.Close()
}

func parseBinanceTrade(tr binanceTrade) (model.Tick, error) {
	symbol := model.NormalizeSymbol(tr.Symbol)
	if symbol == "" {
		return model.Tick{}, fmt.Errorf("unparseable symbol %q", tr.Symbol)
	}
	price, err := strconv.ParseFloat(tr.Price, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("bad price %q: %w", tr.Price, err)
	}
	qty, err := strconv.ParseFloat(tr.Quantity, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("bad quantity %q: %w", tr.Quantity, err)
	}

	ts := time.Now().UTC()
	if tr.TradeTime > 0 {
		ts = time.Unix(0, tr.TradeTime*int64(time.Millisecond)).UTC()
	}
	return model.Tick{
		Symbol:   symbol,
		Exchange: "binance",
		Price:    price,
		Volume:   qty,
		TS:       ts,
	}, nil
}
