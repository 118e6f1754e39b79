package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/payfox/PayFox/internal/pkg/database"
)

// HandleHealth reports liveness of the service and its database connection.
func HandleHealth(c *fiber.Ctx) error {
	sqlDB, err := database.GetDB().DB()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "database": "unavailable"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "database": "unavailable"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
