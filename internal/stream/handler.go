package stream

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stockstream/config"
	"stockstream/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the frontend host is fixed
		return true
	},
}

// Handler upgrades the request to a websocket and runs a tick stream session
// on it for the life of the connection.
func Handler(store PriceSource, cfg config.StreamConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		metrics.StreamSessions.Inc()
		defer metrics.StreamSessions.Dec()

		sess := NewSession(conn, store, logger, cfg.ListenTimeout)
		if err := sess.Run(c.Request.Context()); err != nil {
			logger.Info("stream session ended", zap.Error(err))
		}
	}
}
