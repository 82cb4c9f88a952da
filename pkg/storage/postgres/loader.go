package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stockstream/internal/trade"
	"stockstream/metrics"
)

// rowBatchSize is the chunk size for the row-oriented fallback path.
const rowBatchSize = 500

// BulkInsertError means a batch failed on both insert paths. The store may
// have partially applied the batch; the unique index on trade_id makes a
// retry of the same records safe.
type BulkInsertError struct {
	BulkErr error
	RowErr  error
}

func (e *BulkInsertError) Error() string {
	return fmt.Sprintf("bulk insert failed on both paths: copy: %v, rows: %v", e.BulkErr, e.RowErr)
}

func (e *BulkInsertError) Unwrap() error { return e.RowErr }

// Inserter persists a batch of trade records using one particular strategy.
type Inserter interface {
	Insert(ctx context.Context, records []trade.Record) (int, error)
}

// Loader writes batches through a primary single-round-trip COPY path and
// falls back to row-oriented inserts when the COPY fails.
type Loader struct {
	bulk   Inserter
	rows   Inserter
	logger *zap.Logger
}

func NewLoader(client *PostgresClient, logger *zap.Logger) *Loader {
	return &Loader{
		bulk:   &copyInserter{db: client.copyDB},
		rows:   &rowInserter{db: client.DB},
		logger: logger,
	}
}

// Insert persists records, preferring the COPY path. Empty input is a no-op.
// When both paths fail the returned error wraps both causes and the caller
// must assume the batch may be partially applied.
func (l *Loader) Insert(ctx context.Context, records []trade.Record) (int, error) {
	if len(records) == 0 {
		l.logger.Warn("no trade records to insert")
		return 0, nil
	}

	n, bulkErr := l.bulk.Insert(ctx, records)
	if bulkErr == nil {
		metrics.TradesInserted.WithLabelValues("bulk").Add(float64(n))
		l.logger.Info("bulk copy completed", zap.Int("count", n))
		return n, nil
	}

	l.logger.Warn("bulk copy failed, retrying with row inserts", zap.Error(bulkErr))
	metrics.BulkFallbacks.Inc()

	n, rowErr := l.rows.Insert(ctx, records)
	if rowErr != nil {
		metrics.InsertFailures.Inc()
		return 0, &BulkInsertError{BulkErr: bulkErr, RowErr: rowErr}
	}

	metrics.TradesInserted.WithLabelValues("rows").Add(float64(n))
	l.logger.Info("fallback insert completed", zap.Int("count", n))
	return n, nil
}

// copyInserter streams the whole batch through PostgreSQL's COPY protocol in
// a single transaction.
type copyInserter struct {
	db *sql.DB
}

func (c *copyInserter) Insert(ctx context.Context, records []trade.Record) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin copy tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("stock_trades", copyColumns...))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare copy: %w", err)
	}

	now := time.Now().UTC()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.EventTime, r.EventID.String(), r.Ticker, r.Price, r.Volume,
			string(r.Side), r.TradeID.String(), r.MarketCode, r.CurrencyCode, now,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("buffer copy row: %w", err)
		}
	}

	// Final Exec flushes the buffered rows to the server.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return 0, fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("close copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit copy: %w", err)
	}

	return len(records), nil
}

// rowInserter writes the batch through GORM in small chunks.
type rowInserter struct {
	db *gorm.DB
}

func (r *rowInserter) Insert(ctx context.Context, records []trade.Record) (int, error) {
	rows := make([]*TradeRecord, len(records))
	for i, rec := range records {
		rows[i] = ToTradeRecord(rec)
	}

	tx := r.db.WithContext(ctx).CreateInBatches(rows, rowBatchSize)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return int(tx.RowsAffected), nil
}
