package observability

import (
	"time"

	logs "github.com/danmuck/smplog"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request against the active logger, tagged with
// the pipeline it serves. Successful scrapes of /metrics and /health log at
// trace so a polling collector does not flood debug output.
func RequestLogger(pipeline string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := routePath(c)
		logger := logs.Zerolog()

		var event *logs.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case path == "/metrics" || path == "/health":
			event = logger.Trace()
		default:
			event = logger.Debug()
		}

		event.
			Str("pipeline", pipeline).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int("bytes", c.Writer.Size()).
			Msg("http_request")
	}
}

func RequestMetricsMiddleware(pipeline string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(pipeline, c.Request.Method, routePath(c), c.Writer.Status(), time.Since(start))
	}
}

// routePath prefers the matched route so unknown URLs share one label.
func routePath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}
