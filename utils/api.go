package utils

import (
	fiber "github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/database"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"go.uber.org/zap"
)

// MakeHTTPHandleFunc adapts a storage-aware handler to a fiber handler. An
// error that escapes the handler is logged and answered with a generic 500.
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := handler(c, store); err != nil {
			zap.L().Error("handler failed",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return response.InternalServerError(c, "")
		}
		return nil
	}
}
