package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/route-network-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, keeping the path label bounded.
const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route template. Probe and scrape routes
// listed in skip are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		ignored[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if _, ok := ignored[path]; ok {
			return
		}
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
