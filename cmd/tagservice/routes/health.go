package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/tagservice/cmd/tagservice/container"
	"github.com/lyzr/tagservice/common/metrics"
)

// RegisterHealthRoutes registers the health check endpoint
func RegisterHealthRoutes(e *echo.Echo, c *container.Container) {
	name := c.Components.Config.Service.Name
	system := metrics.CaptureSystemInfo()

	e.GET("/health", func(ctx echo.Context) error {
		if err := c.Components.Health(ctx.Request().Context()); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"service": name,
				"error":   err.Error(),
			})
		}
		return ctx.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": name,
			"system":  system,
		})
	})
}
