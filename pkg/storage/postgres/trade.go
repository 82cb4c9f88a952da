package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// historyLimit caps how many rows a history query may return.
const historyLimit = 1000

// LatestTrade returns the most recent trade for a ticker, or (nil, nil) when
// no trade exists yet. Callers must treat a nil record as "no data", not as
// an error.
func (p *PostgresClient) LatestTrade(ctx context.Context, ticker string) (*TradeRecord, error) {
	var rec TradeRecord
	err := p.DB.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("event_time DESC").
		First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetTradeByID looks up a single trade by its unique trade id.
func (p *PostgresClient) GetTradeByID(ctx context.Context, tradeID string) (*TradeRecord, error) {
	var rec TradeRecord
	err := p.DB.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		First(&rec).Error

	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// TradeFilter narrows a history query. Zero values mean "no filter".
type TradeFilter struct {
	Since      time.Time
	Ticker     string
	TradeType  string
	MarketCode string
}

// QueryTrades returns the most recent trades matching the filter, newest
// first, capped at 1000 rows.
func (p *PostgresClient) QueryTrades(ctx context.Context, filter TradeFilter) ([]TradeRecord, error) {
	q := p.DB.WithContext(ctx).Model(&TradeRecord{})

	if !filter.Since.IsZero() {
		q = q.Where("event_time >= ?", filter.Since)
	}
	if filter.Ticker != "" {
		q = q.Where("ticker = ?", filter.Ticker)
	}
	if filter.TradeType != "" {
		q = q.Where("trade_type = ?", filter.TradeType)
	}
	if filter.MarketCode != "" {
		q = q.Where("market_code = ?", filter.MarketCode)
	}

	var records []TradeRecord
	if err := q.Order("event_time DESC").Limit(historyLimit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
