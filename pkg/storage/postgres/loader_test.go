package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockstream/internal/trade"
)

type stubInserter struct {
	err      error
	inserted []trade.Record
	calls    int
}

func (s *stubInserter) Insert(_ context.Context, records []trade.Record) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	s.inserted = append(s.inserted, records...)
	return len(records), nil
}

func sampleRecords(t *testing.T, n int) []trade.Record {
	t.Helper()
	records := make([]trade.Record, n)
	for i := range records {
		eventID, err := uuid.NewV7()
		require.NoError(t, err)
		records[i] = trade.Record{
			EventTime:    time.Now().UTC(),
			EventID:      eventID,
			TradeID:      uuid.New(),
			Ticker:       "AAPL",
			Price:        decimal.NewFromFloat(150.25),
			Volume:       100,
			Side:         trade.SideBuy,
			MarketCode:   "NASDAQ",
			CurrencyCode: "USD",
		}
		require.NoError(t, records[i].Validate())
	}
	return records
}

func TestLoaderEmptyInputIsNoOp(t *testing.T) {
	bulk := &stubInserter{}
	rows := &stubInserter{}
	loader := &Loader{bulk: bulk, rows: rows, logger: zap.NewNop()}

	n, err := loader.Insert(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, bulk.calls)
	assert.Zero(t, rows.calls)
}

func TestLoaderPrefersBulkPath(t *testing.T) {
	bulk := &stubInserter{}
	rows := &stubInserter{}
	loader := &Loader{bulk: bulk, rows: rows, logger: zap.NewNop()}

	records := sampleRecords(t, 7)
	n, err := loader.Insert(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, 1, bulk.calls)
	assert.Zero(t, rows.calls, "row path must not run when the copy succeeds")
}

func TestLoaderFallsBackToRowPath(t *testing.T) {
	bulk := &stubInserter{err: errors.New("copy protocol refused")}
	rows := &stubInserter{}
	loader := &Loader{bulk: bulk, rows: rows, logger: zap.NewNop()}

	records := sampleRecords(t, 25)
	n, err := loader.Insert(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Equal(t, 1, bulk.calls)
	assert.Equal(t, 1, rows.calls)

	// Every record must make it through the fallback path.
	require.Len(t, rows.inserted, 25)
	want := make(map[string]bool, len(records))
	for _, r := range records {
		want[r.TradeID.String()] = true
	}
	for _, r := range rows.inserted {
		assert.True(t, want[r.TradeID.String()], "unexpected record in fallback batch")
	}
}

func TestLoaderSurfacesBothFailures(t *testing.T) {
	bulkErr := errors.New("copy protocol refused")
	rowErr := errors.New("connection reset")
	loader := &Loader{
		bulk:   &stubInserter{err: bulkErr},
		rows:   &stubInserter{err: rowErr},
		logger: zap.NewNop(),
	}

	n, err := loader.Insert(context.Background(), sampleRecords(t, 3))
	assert.Zero(t, n)

	var insertErr *BulkInsertError
	require.ErrorAs(t, err, &insertErr)
	assert.ErrorIs(t, insertErr.BulkErr, bulkErr)
	assert.ErrorIs(t, insertErr.RowErr, rowErr)
	assert.ErrorIs(t, err, rowErr)
}
