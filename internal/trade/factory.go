package trade

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockstream/config"
)

// Factory builds validated trade records from randomized inputs. The random
// source and clock are injected so generation is reproducible in tests.
type Factory struct {
	tickers      []string
	sides        []Side
	marketCode   string
	currencyCode string

	priceMin  float64
	priceMax  float64
	volumeMin int64
	volumeMax int64

	rng *rand.Rand
}

// NewFactory creates a factory from generator config. Ticker and currency
// codes are canonicalized to uppercase on the way in.
func NewFactory(cfg config.GeneratorConfig, rng *rand.Rand) (*Factory, error) {
	if len(cfg.Tickers) == 0 {
		return nil, fmt.Errorf("factory needs at least one ticker")
	}
	if len(cfg.TradeTypes) == 0 {
		return nil, fmt.Errorf("factory needs at least one trade type")
	}
	if cfg.PriceMin <= 0 || cfg.PriceMax < cfg.PriceMin {
		return nil, fmt.Errorf("invalid price range [%v, %v]", cfg.PriceMin, cfg.PriceMax)
	}
	if cfg.VolumeMin <= 0 || cfg.VolumeMax < cfg.VolumeMin {
		return nil, fmt.Errorf("invalid volume range [%d, %d]", cfg.VolumeMin, cfg.VolumeMax)
	}

	tickers := make([]string, len(cfg.Tickers))
	for i, t := range cfg.Tickers {
		tickers[i] = strings.ToUpper(t)
	}
	sides := make([]Side, len(cfg.TradeTypes))
	for i, s := range cfg.TradeTypes {
		sides[i] = Side(strings.ToUpper(s))
	}

	return &Factory{
		tickers:      tickers,
		sides:        sides,
		marketCode:   cfg.MarketCode,
		currencyCode: strings.ToUpper(cfg.CurrencyCode),
		priceMin:     cfg.PriceMin,
		priceMax:     cfg.PriceMax,
		volumeMin:    cfg.VolumeMin,
		volumeMax:    cfg.VolumeMax,
		rng:          rng,
	}, nil
}

// New builds one record at the given event time. Price is sampled from the
// configured range and rounded to 2 decimal places; the finished record is
// re-validated and rejected rather than clamped if any field is out of range.
func (f *Factory) New(eventTime time.Time) (Record, error) {
	eventID, err := uuid.NewV7()
	if err != nil {
		return Record{}, fmt.Errorf("generate event id: %w", err)
	}

	price := decimal.NewFromFloat(f.priceMin + f.rng.Float64()*(f.priceMax-f.priceMin)).Round(2)
	volume := f.volumeMin + f.rng.Int63n(f.volumeMax-f.volumeMin+1)

	rec := Record{
		EventTime:    eventTime,
		EventID:      eventID,
		TradeID:      uuid.New(),
		Ticker:       f.tickers[f.rng.Intn(len(f.tickers))],
		Price:        price,
		Volume:       volume,
		Side:         f.sides[f.rng.Intn(len(f.sides))],
		MarketCode:   f.marketCode,
		CurrencyCode: f.currencyCode,
	}

	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}
