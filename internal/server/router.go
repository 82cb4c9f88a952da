// Package server wires the HTTP surface: the generation trigger, the history
// query, the tick stream websocket and the anomaly SSE stream.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stockstream/config"
	"stockstream/internal/anomaly"
	"stockstream/internal/history"
	"stockstream/internal/stream"
	"stockstream/internal/trade"
	"stockstream/pkg/storage/postgres"
)

type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *postgres.PostgresClient
	generator *trade.Generator

	// baseCtx bounds the generator's lifetime to the process, not to the
	// triggering request.
	baseCtx  context.Context
	genOnce  sync.Once
	streamer *anomaly.Streamer
}

func New(baseCtx context.Context, cfg *config.Config, logger *zap.Logger,
	store *postgres.PostgresClient, generator *trade.Generator) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		generator: generator,
		baseCtx:   baseCtx,
		streamer:  anomaly.NewStreamer(cfg.Anomaly.Interval),
	}
}

func (s *Server) Router() *gin.Engine {
	if s.cfg.Log.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	v1.POST("/stock/generate", s.handleGenerate)
	v1.GET("/stocks", s.handleHistory)
	v1.GET("/stock/ws", stream.Handler(s.store, s.cfg.Stream, s.logger))
	v1.GET("/anomaly/stream", s.streamer.Handler())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.handleHealth)

	return r
}

// handleGenerate starts the generation loop in the background. The loop runs
// once per process; repeated triggers are acknowledged but do nothing.
func (s *Server) handleGenerate(c *gin.Context) {
	s.genOnce.Do(func() {
		go s.generator.Run(s.baseCtx)
	})

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "success",
		"message": "stock data generation started",
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	var query history.TradeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := history.Fetch(c.Request.Context(), s.store, query)
	if err != nil {
		var verr *trade.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		s.logger.Error("history query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	if !s.store.IsHealthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
