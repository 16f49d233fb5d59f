package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/webservertaskmanager/task-api/internal/metrics"
)

// Metrics records request duration by route template, so /tasks/:id is one
// series rather than one per id.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}
