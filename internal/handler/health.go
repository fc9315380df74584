package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything Health can probe (the database, the Redis client).
type Pinger func(ctx context.Context) error

// Health reports whether the service and its dependencies respond.  With
// no probes it is a plain liveness check.
func Health(probes map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		checks := make(map[string]string, len(probes))
		code := http.StatusOK
		for name, ping := range probes {
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		status := "ok"
		if code != http.StatusOK {
			status = "degraded"
		}
		return c.JSON(code, echo.Map{"status": status, "checks": checks})
	}
}
