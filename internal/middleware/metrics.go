package middleware

import (
	"time"

	"github.com/aman-churiwal/getyoursite/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latencies labeled by the matched route
// template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
