package stream

import (
	"strings"

	"stockstream/internal/trade"
)

// ControlMessage is the client->server reconfiguration payload. The first
// one on a connection establishes the subscription; later ones update it.
type ControlMessage struct {
	Ticker string `json:"ticker"`
	Tick   int    `json:"tick"` // push cadence in seconds
}

// Validate checks the message fields. Malformed messages are discarded and
// the listener keeps going.
func (m ControlMessage) Validate() error {
	if l := len(m.Ticker); l < 1 || l > 10 {
		return &trade.ValidationError{Field: "ticker", Reason: "must be 1-10 characters"}
	}
	if m.Tick < 1 {
		return &trade.ValidationError{Field: "tick", Reason: "must be at least 1 second"}
	}
	return nil
}

// normalizedTicker returns the canonical uppercase ticker.
func (m ControlMessage) normalizedTicker() string {
	return strings.ToUpper(m.Ticker)
}

// TickData carries the price payload of one tick. High and low both hold the
// single latest price; there is no candle aggregation behind them.
type TickData struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// TickMessage is the server->client tick payload. Data is null when no trade
// exists yet for the ticker, so clients can tell "no data" from a transport
// problem.
type TickMessage struct {
	Type        string    `json:"type"`
	Ticker      string    `json:"ticker"`
	Data        *TickData `json:"data"`
	CurrentTick int       `json:"current_tick"`
}

const tickMessageType = "candle_tick"
