package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eeeflix-contacts/internal/service"
)

const unmatchedRoute = "unmatched"

var knownMethods = map[string]struct{}{
	http.MethodGet: {}, http.MethodHead: {}, http.MethodPost: {}, http.MethodPut: {},
	http.MethodPatch: {}, http.MethodDelete: {}, http.MethodOptions: {},
}

// Metrics records request count and latency per route template. Requests to
// skipPaths, such as the scrape endpoint itself, are not counted.
func Metrics(metricsSvc *service.MetricsService, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skip[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(methodLabel(c.Request.Method), route, c.Writer.Status(), time.Since(start))
	}
}

// methodLabel bounds label cardinality: the update route accepts any verb.
func methodLabel(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}
	return "OTHER"
}
