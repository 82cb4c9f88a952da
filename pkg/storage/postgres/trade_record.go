package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"stockstream/internal/trade"
)

// TradeRecord is one row of the append-mostly stock_trades table.
type TradeRecord struct {
	ID uint `gorm:"primaryKey"`

	EventTime time.Time `gorm:"not null;index:idx_trades_ticker_event_time,priority:2,sort:desc"`
	EventID   string    `gorm:"type:uuid;not null"`
	Ticker    string    `gorm:"type:varchar(10);not null;index:idx_trades_ticker_event_time,priority:1"`

	Price  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Volume int64           `gorm:"not null"`

	// BUY or SELL. Kept as trade_type to match the historical schema.
	TradeType string `gorm:"type:varchar(4);not null"`

	TradeID      string `gorm:"type:uuid;not null;uniqueIndex:idx_trades_trade_id"`
	MarketCode   string `gorm:"type:varchar(20);not null"`
	CurrencyCode string `gorm:"type:char(3);not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (TradeRecord) TableName() string {
	return "stock_trades"
}

// copyColumns is the column order used by the bulk COPY path. It must stay in
// sync with the struct above.
var copyColumns = []string{
	"event_time", "event_id", "ticker", "price", "volume",
	"trade_type", "trade_id", "market_code", "currency_code", "recorded_at",
}

// ToTradeRecord converts a domain record into a row for insertion.
func ToTradeRecord(r trade.Record) *TradeRecord {
	return &TradeRecord{
		EventTime:    r.EventTime,
		EventID:      r.EventID.String(),
		Ticker:       r.Ticker,
		Price:        r.Price,
		Volume:       r.Volume,
		TradeType:    string(r.Side),
		TradeID:      r.TradeID.String(),
		MarketCode:   r.MarketCode,
		CurrencyCode: r.CurrencyCode,
	}
}
