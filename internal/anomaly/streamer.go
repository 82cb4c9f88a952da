// Package anomaly emits placeholder anomaly events over SSE. Real detection
// happens in an external pipeline; this endpoint only keeps the contract and
// transport in place.
package anomaly

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultInterval = 5 * time.Second

// Streamer periodically pushes one SSE event per interval until the client
// disconnects.
type Streamer struct {
	interval time.Duration
}

func NewStreamer(interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Streamer{interval: interval}
}

// Handler returns the SSE endpoint.
func (s *Streamer) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case t := <-ticker.C:
				c.SSEvent("anomaly", gin.H{
					"timestamp":    t.UTC().Format(time.RFC3339),
					"anomaly_data": "anomaly data goes here",
				})
				return true
			}
		})
	}
}
