package logger

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// RequestIDHeader is echoed back on every response
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id and logs one line per request.
// 4xx responses log at warn, 5xx at error.
func RequestLogger(l *slog.Logger) fiber.Handler {
	l = WithComponent(l, ComponentHTTP)

	return func(c fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals(FieldRequestID, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if sc, ok := err.(interface{ HTTPStatus() int }); ok {
				status = sc.HTTPStatus()
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []any{
			FieldRequestID, requestID,
			FieldMethod, c.Method(),
			FieldPath, c.Path(),
			FieldStatusCode, status,
			FieldDuration, time.Since(start).Milliseconds(),
			FieldClientIP, c.IP(),
		}
		if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
			attrs = append(attrs, FieldUserID, userID)
		}
		if err != nil {
			attrs = append(attrs, FieldError, err.Error())
		}

		l.Log(c.Context(), level, "HTTP request completed", attrs...)
		return err
	}
}
