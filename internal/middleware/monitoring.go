package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/thelittlethings/backend/internal/metrics"
)

// MonitorMiddleware records request counts and latency per route template
func MonitorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// render now so the recorded status is the one the client sees
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := c.Response().Status
			metrics.HTTPRequestsTotal.WithLabelValues(path, c.Request().Method, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(path, c.Request().Method).Observe(time.Since(start).Seconds())

			if status == http.StatusForbidden {
				metrics.AuthRejections.WithLabelValues("403_forbidden").Inc()
			}
			return err
		}
	}
}

// MetricsBasicAuth protects /metrics. With no user configured every request is refused.
func MetricsBasicAuth(user, pass string) echo.MiddlewareFunc {
	return echomw.BasicAuthWithConfig(echomw.BasicAuthConfig{
		Realm: "Metrics",
		Validator: func(u, p string, _ echo.Context) (bool, error) {
			if user == "" {
				return false, nil
			}
			okUser := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
			okPass := subtle.ConstantTimeCompare([]byte(p), []byte(pass)) == 1
			return okUser && okPass, nil
		},
	})
}
