package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/access"
	"github.com/noah-isme/osms-api/internal/service"
)

// Metrics records request latency and counts per route. Requests that match
// no route are labelled by their access zone so scans of random paths cannot
// grow the label set.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched:" + string(access.Classify(c.Request.URL.Path))
}
