package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is a liveness probe.  It never touches a backend.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger checks that a backend answers.
type Pinger func(ctx context.Context) error

// Ready returns a readiness probe that pings every named backend and reports
// 503 when any of them fails.
func Ready(backends map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		out := make(map[string]string, len(backends))
		for name, ping := range backends {
			if err := ping(ctx); err != nil {
				slog.WarnContext(ctx, "readiness check failed", "backend", name, "error", err)
				out[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			out[name] = "up"
		}
		return c.JSON(status, out)
	}
}
