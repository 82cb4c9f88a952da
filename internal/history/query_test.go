package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockstream/internal/trade"
	"stockstream/pkg/storage/postgres"
)

type stubReader struct {
	gotFilter postgres.TradeFilter
	records   []postgres.TradeRecord
}

func (s *stubReader) QueryTrades(_ context.Context, filter postgres.TradeFilter) ([]postgres.TradeRecord, error) {
	s.gotFilter = filter
	return s.records, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestNormalizeCanonicalizesTradeType(t *testing.T) {
	q := TradeQuery{TradeType: strPtr("buy")}
	require.NoError(t, q.Normalize())
	assert.Equal(t, "BUY", *q.TradeType)
}

func TestNormalizeRejectsBadFilters(t *testing.T) {
	cases := []struct {
		name  string
		query TradeQuery
		field string
	}{
		{"zero duration", TradeQuery{Duration: intPtr(0)}, "duration"},
		{"lowercase ticker", TradeQuery{Ticker: strPtr("aapl")}, "ticker"},
		{"digit ticker", TradeQuery{Ticker: strPtr("AAPL1")}, "ticker"},
		{"lowercase market", TradeQuery{MarketCode: strPtr("nasdaq")}, "marketCode"},
		{"bad trade type", TradeQuery{TradeType: strPtr("HOLD")}, "tradeType"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.query.Normalize()
			var verr *trade.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestFetchBuildsFilter(t *testing.T) {
	reader := &stubReader{records: []postgres.TradeRecord{{Ticker: "AAPL"}}}

	before := time.Now().UTC()
	resp, err := Fetch(context.Background(), reader, TradeQuery{
		Duration:   intPtr(30),
		Ticker:     strPtr("AAPL"),
		TradeType:  strPtr("sell"),
		MarketCode: strPtr("NASDAQ"),
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", reader.gotFilter.Ticker)
	assert.Equal(t, "SELL", reader.gotFilter.TradeType)
	assert.Equal(t, "NASDAQ", reader.gotFilter.MarketCode)

	wantSince := before.Add(-30 * time.Minute)
	assert.WithinDuration(t, wantSince, reader.gotFilter.Since, 5*time.Second)

	assert.Equal(t, 1, resp.Count)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, "SELL", *resp.Filters.TradeType)
}

func TestFetchWithNoFilters(t *testing.T) {
	reader := &stubReader{}
	resp, err := Fetch(context.Background(), reader, TradeQuery{})
	require.NoError(t, err)

	assert.True(t, reader.gotFilter.Since.IsZero())
	assert.Empty(t, reader.gotFilter.Ticker)
	assert.Zero(t, resp.Count)
}
