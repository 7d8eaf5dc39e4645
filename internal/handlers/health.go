package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports liveness. With a non-nil ping it also checks storage.
func HealthCheck(ping func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  "database connection failed",
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "thelittlethings-api",
		})
	}
}
