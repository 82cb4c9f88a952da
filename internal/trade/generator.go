package trade

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"stockstream/config"
	"stockstream/metrics"
)

// BatchInserter persists a batch of records and reports how many were written.
type BatchInserter interface {
	Insert(ctx context.Context, records []Record) (int, error)
}

// Generator is the long-running producer: each cycle it picks a randomized
// batch size, generates a time-distributed batch and hands it to the loader.
// Errors are contained within a cycle and never stop the loop; only context
// cancellation does.
type Generator struct {
	scheduler *Scheduler
	loader    BatchInserter
	logger    *zap.Logger
	rng       *rand.Rand

	minBatch int
	maxBatch int
	interval time.Duration
}

func NewGenerator(scheduler *Scheduler, loader BatchInserter, cfg config.GeneratorConfig,
	rng *rand.Rand, logger *zap.Logger) *Generator {
	interval := time.Duration(cfg.DistributionSeconds) * time.Second
	if interval <= 0 {
		interval = time.Duration(scheduler.Window()) * time.Second
	}

	maxBatch := cfg.BaseBatchSize * cfg.MaxBatchMultiplier
	if maxBatch < cfg.MinBatchSize {
		maxBatch = cfg.MinBatchSize
	}

	return &Generator{
		scheduler: scheduler,
		loader:    loader,
		logger:    logger,
		rng:       rng,
		minBatch:  cfg.MinBatchSize,
		maxBatch:  maxBatch,
		interval:  interval,
	}
}

// Run generates and inserts batches until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) {
	g.logger.Info("trade generator started",
		zap.Int("min_batch", g.minBatch),
		zap.Int("max_batch", g.maxBatch),
		zap.Duration("interval", g.interval))

	for {
		g.runCycle(ctx)

		select {
		case <-ctx.Done():
			g.logger.Info("trade generator stopped")
			return
		case <-time.After(g.interval):
		}
	}
}

func (g *Generator) runCycle(ctx context.Context) {
	size := g.minBatch + g.rng.Intn(g.maxBatch-g.minBatch+1)
	g.logger.Debug("picked batch size", zap.Int("size", size))

	records, err := g.scheduler.Generate(size)
	if err != nil {
		g.logger.Error("batch generation failed", zap.Error(err))
		return
	}
	metrics.TradesGenerated.Add(float64(len(records)))

	inserted, err := g.loader.Insert(ctx, records)
	if err != nil {
		g.logger.Error("batch insert failed", zap.Int("size", len(records)), zap.Error(err))
		return
	}

	g.logger.Info("batch inserted",
		zap.Int("generated", len(records)),
		zap.Int("inserted", inserted))
}
