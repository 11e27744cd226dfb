package middleware

import (
	"context"
	"strings"

	"github.com/boutique/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling labels CPU and allocation samples with the route pattern and
// method so pyroscope can break profiles down per endpoint. Health and
// swagger requests are not labelled.
func Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || strings.HasPrefix(path, "/swagger") {
			c.Next()
			return
		}

		labels := map[string]string{
			telemetry.LabelMethod: c.Request.Method,
			telemetry.LabelRoute:  c.FullPath(),
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
