package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"peervote/pkg/metrics"
)

// RequestLogger logs one line per request. The Authorization header and bodies
// are never logged since both can carry plaintext tokens.
func RequestLogger(ms *metrics.MetricService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		ms.ObserveHTTPRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)

		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}
		event.
			Str("trace_id", c.GetString("trace_id")).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Msg("request")
	}
}
