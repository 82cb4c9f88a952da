// Package history serves the read-only filtered view over stored trades.
package history

import (
	"context"
	"strings"
	"time"

	"stockstream/internal/trade"
	"stockstream/pkg/storage/postgres"
)

// TradeQuery holds the optional request filters, bound from query parameters.
type TradeQuery struct {
	Duration   *int    `form:"duration"` // minutes back from now
	Ticker     *string `form:"ticker"`
	TradeType  *string `form:"tradeType"`
	MarketCode *string `form:"marketCode"`
}

// TradeResponse echoes the applied filters alongside the matching rows.
type TradeResponse struct {
	Data    []postgres.TradeRecord `json:"data"`
	Count   int                    `json:"count"`
	Filters TradeQuery             `json:"filters"`
}

// Reader is the slice of the store the history view needs.
type Reader interface {
	QueryTrades(ctx context.Context, filter postgres.TradeFilter) ([]postgres.TradeRecord, error)
}

// Normalize validates the query and canonicalizes its fields in place.
// Ticker and market code must be uppercase English letters; trade type is
// accepted case-insensitively and canonicalized to BUY/SELL.
func (q *TradeQuery) Normalize() error {
	if q.Duration != nil && *q.Duration < 1 {
		return &trade.ValidationError{Field: "duration", Reason: "must be at least 1 minute"}
	}
	if q.Ticker != nil {
		if !isUpperAlpha(*q.Ticker) {
			return &trade.ValidationError{Field: "ticker", Reason: "must be uppercase English letters only"}
		}
	}
	if q.MarketCode != nil {
		if !isUpperAlpha(*q.MarketCode) {
			return &trade.ValidationError{Field: "marketCode", Reason: "must be uppercase English letters only"}
		}
	}
	if q.TradeType != nil {
		upper := strings.ToUpper(*q.TradeType)
		if upper != string(trade.SideBuy) && upper != string(trade.SideSell) {
			return &trade.ValidationError{Field: "tradeType", Reason: "must be BUY or SELL"}
		}
		q.TradeType = &upper
	}
	return nil
}

// Fetch runs the normalized query against the store, newest rows first.
func Fetch(ctx context.Context, reader Reader, q TradeQuery) (*TradeResponse, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}

	var filter postgres.TradeFilter
	if q.Duration != nil {
		filter.Since = time.Now().UTC().Add(-time.Duration(*q.Duration) * time.Minute)
	}
	if q.Ticker != nil {
		filter.Ticker = *q.Ticker
	}
	if q.TradeType != nil {
		filter.TradeType = *q.TradeType
	}
	if q.MarketCode != nil {
		filter.MarketCode = *q.MarketCode
	}

	records, err := reader.QueryTrades(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &TradeResponse{
		Data:    records,
		Count:   len(records),
		Filters: q,
	}, nil
}

func isUpperAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
