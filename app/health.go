package app

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-taskboard/api"
)

const healthPingTimeout = 2 * time.Second

// Health reports the storage backend and whether it answers
func (a *App) Health(c *fiber.Ctx) error {
	storage := fiber.Map{
		"driver": a.repo.Driver(),
		"status": "up",
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
	defer cancel()

	if err := a.repo.Ping(ctx); err != nil {
		a.logger.Warn("health check failed", "driver", a.repo.Driver(), "error", err)
		storage["status"] = "down"
		return c.Status(fiber.StatusServiceUnavailable).JSON(api.Response{
			Success: false,
			Message: "Storage unavailable",
			Data:    fiber.Map{"status": "degraded", "storage": storage},
		})
	}

	return api.OK(c, fiber.Map{
		"status":  "ok",
		"service": a.config.App.Name,
		"storage": storage,
		"time":    a.clock().UTC(),
	})
}

// Ready answers once the app finished wiring
func (a *App) Ready(c *fiber.Ctx) error {
	return api.Message(c, "ready")
}
