package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/thihaagset01/midwhereah/internal/core/ports"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks cache and NATS connectivity and reports whether the
// routing oracle is configured. A missing oracle degrades results to local
// estimates but does not make the service unready.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Cache
		if deps.Cache != nil {
			if deps.CachePing != nil {
				if err := deps.CachePing(ctx); err != nil {
					checks["cache"] = "error: " + err.Error()
					allOK = false
				} else {
					checks["cache"] = "ok"
				}
			} else {
				// A cache miss proves the in-process cache answers.
				_, err := deps.Cache.Get(ctx, "__health_check__")
				if err != nil && !errors.Is(err, ports.ErrCacheMiss) {
					checks["cache"] = "error: " + err.Error()
					allOK = false
				} else {
					checks["cache"] = "ok"
				}
			}
		} else {
			checks["cache"] = "not configured"
			allOK = false
		}

		// NATS
		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
				allOK = false
			}
		} else {
			checks["nats"] = "not configured"
		}

		// Routing oracle
		if deps.OracleConfigured {
			checks["oracle"] = "ok"
		} else {
			checks["oracle"] = "not configured (estimates only)"
		}

		status := "ready"
		code := 200
		if !allOK {
			status = "not ready"
			code = 503
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
