package utils

import "github.com/gofiber/fiber/v3"

// ErrorResponse writes a bare error body from middleware that runs before the
// error handler is involved
func ErrorResponse(c fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
