package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Field bounds enforced on every record.
var (
	maxPrice  = decimal.NewFromInt(10000)
	maxVolume = int64(1_000_000)
)

// ValidationError reports a record or message field that violates its
// constraints.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Record is a single synthetic trade. Once constructed and validated it is
// never mutated.
type Record struct {
	EventTime    time.Time
	EventID      uuid.UUID // time-sortable (UUIDv7)
	TradeID      uuid.UUID // opaque unique id (UUIDv4)
	Ticker       string
	Price        decimal.Decimal
	Volume       int64
	Side         Side
	MarketCode   string
	CurrencyCode string
}

// Validate re-checks every field constraint. A record that fails validation
// must be discarded, never repaired.
func (r Record) Validate() error {
	if r.EventTime.IsZero() {
		return &ValidationError{Field: "event_time", Reason: "must be set"}
	}
	if r.EventID == uuid.Nil {
		return &ValidationError{Field: "event_id", Reason: "must be set"}
	}
	if r.TradeID == uuid.Nil {
		return &ValidationError{Field: "trade_id", Reason: "must be set"}
	}
	if l := len(r.Ticker); l < 1 || l > 10 {
		return &ValidationError{Field: "ticker", Reason: "must be 1-10 characters"}
	}
	if r.Ticker != strings.ToUpper(r.Ticker) {
		return &ValidationError{Field: "ticker", Reason: "must be uppercase"}
	}
	if !r.Price.IsPositive() || r.Price.GreaterThan(maxPrice) {
		return &ValidationError{Field: "price", Reason: "must be > 0 and <= 10000"}
	}
	if r.Price.Exponent() < -2 {
		return &ValidationError{Field: "price", Reason: "must have at most 2 decimal places"}
	}
	if r.Volume <= 0 || r.Volume > maxVolume {
		return &ValidationError{Field: "volume", Reason: "must be > 0 and <= 1000000"}
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return &ValidationError{Field: "side", Reason: "must be BUY or SELL"}
	}
	if l := len(r.MarketCode); l < 1 || l > 20 {
		return &ValidationError{Field: "market_code", Reason: "must be 1-20 characters"}
	}
	if len(r.CurrencyCode) != 3 {
		return &ValidationError{Field: "currency_code", Reason: "must be exactly 3 characters"}
	}
	if r.CurrencyCode != strings.ToUpper(r.CurrencyCode) {
		return &ValidationError{Field: "currency_code", Reason: "must be uppercase"}
	}
	return nil
}
