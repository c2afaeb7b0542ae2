package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/database"
)

// HandleCheckHealth reports whether the database answers a ping
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unavailable",
			"database": "down",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"database": "up",
	})
}
