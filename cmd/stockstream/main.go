package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockstream/config"
	"stockstream/internal/server"
	"stockstream/internal/trade"
	"stockstream/logger"
	"stockstream/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// postgres client + schema
	client, err := postgres.InitializeAndMigrateTradeRecord(cfg.Postgres, true, cfg.Log.Environment)
	if err != nil {
		log.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer client.Close()

	// trade generation pipeline
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	factory, err := trade.NewFactory(cfg.Generator, rng)
	if err != nil {
		log.Fatal("invalid generator config", zap.Error(err))
	}
	scheduler := trade.NewScheduler(factory, cfg.Generator.WindowSeconds, rng, trade.UTCClock)
	loader := postgres.NewLoader(client, log)
	generator := trade.NewGenerator(scheduler, loader, cfg.Generator, rng, log)

	// shut the generator and open streams down with the process
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(ctx, cfg, log, client, generator)
	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", zap.Error(err))
	}
	log.Info("shutdown complete")
}
