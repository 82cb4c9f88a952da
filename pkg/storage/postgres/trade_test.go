package postgres_test

import (
	"context"
	"math/rand"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"stockstream/config"
	"stockstream/internal/trade"
	"stockstream/pkg/storage/postgres"
)

func testPostgresConfig(t *testing.T) config.PostgresConfig {
	t.Helper()
	if os.Getenv("STOCKSTREAM_TEST_DB") == "" {
		t.Skip("set STOCKSTREAM_TEST_DB to run postgres integration tests")
	}
	return config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "stockstream_test",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}
}

func testFactory(t *testing.T) *trade.Factory {
	t.Helper()
	factory, err := trade.NewFactory(config.GeneratorConfig{
		Tickers:      []string{"AAPL", "MSFT"},
		TradeTypes:   []string{"BUY", "SELL"},
		MarketCode:   "NASDAQ",
		CurrencyCode: "USD",
		PriceMin:     10,
		PriceMax:     5000,
		VolumeMin:    1,
		VolumeMax:    100000,
	}, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		t.Fatalf("failed to build factory: %v", err)
	}
	return factory
}

// go test -v --run TestTradeRoundTrip
func TestTradeRoundTrip(t *testing.T) {
	cfg := testPostgresConfig(t)

	client, err := postgres.InitializeAndMigrateTradeRecord(cfg, true, "dev")
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	factory := testFactory(t)

	eventTime := time.Now().UTC().Truncate(time.Millisecond)
	rec, err := factory.New(eventTime)
	if err != nil {
		t.Fatalf("failed to build record: %v", err)
	}

	loader := postgres.NewLoader(client, zap.NewNop())
	n, err := loader.Insert(ctx, []trade.Record{rec})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 inserted, got %d", n)
	}

	got, err := client.GetTradeByID(ctx, rec.TradeID.String())
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}

	if got.Ticker != rec.Ticker ||
		got.TradeType != string(rec.Side) ||
		got.Volume != rec.Volume ||
		got.MarketCode != rec.MarketCode ||
		got.CurrencyCode != rec.CurrencyCode ||
		got.EventID != rec.EventID.String() {
		t.Errorf("round-tripped record differs: %+v vs %+v", got, rec)
	}
	if !got.Price.Equal(rec.Price) {
		t.Errorf("price mismatch: %s vs %s", got.Price, rec.Price)
	}
	if !got.EventTime.Equal(rec.EventTime) {
		t.Errorf("event time mismatch: %s vs %s", got.EventTime, rec.EventTime)
	}
}

// go test -v --run TestLatestTrade
func TestLatestTrade(t *testing.T) {
	cfg := testPostgresConfig(t)

	client, err := postgres.InitializeAndMigrateTradeRecord(cfg, true, "dev")
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	// Unknown ticker means "no data yet", not an error.
	missing, err := client.LatestTrade(ctx, "NOSUCH")
	if err != nil {
		t.Fatalf("latest read failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil record for unknown ticker, got %+v", missing)
	}

	factory := testFactory(t)
	loader := postgres.NewLoader(client, zap.NewNop())

	older, err := factory.New(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("failed to build record: %v", err)
	}
	newer, err := factory.New(time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to build record: %v", err)
	}

	if _, err := loader.Insert(ctx, []trade.Record{older, newer}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := client.LatestTrade(ctx, newer.Ticker)
	if err != nil {
		t.Fatalf("latest read failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a latest trade")
	}
	if got.EventTime.Before(newer.EventTime.Truncate(time.Second)) {
		t.Errorf("latest trade is stale: %s", got.EventTime)
	}
}
