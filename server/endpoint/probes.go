package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/component"
)

// HealthChecker returns the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

func stamp(serviceName string, status any) gin.H {
	return gin.H{
		"status":    status,
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

func check(c *gin.Context, checker HealthChecker) []component.Health {
	if checker == nil {
		return []component.Health{}
	}
	return checker(c.Request.Context())
}

// Health reports the worst component status along with every component.
// Unhealthy answers 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := check(c, checker)
		status := component.Worst(components)

		body := stamp(serviceName, status)
		body["components"] = components
		if status == component.StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}

// Liveness confirms the process can serve HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stamp(serviceName, "alive"))
	}
}

// Readiness answers 503 while any component is unhealthy. Degraded
// components still accept uploads.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if component.Worst(check(c, checker)) == component.StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, stamp(serviceName, "not_ready"))
			return
		}
		c.JSON(http.StatusOK, stamp(serviceName, "ready"))
	}
}
