package utils

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"
)

type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus lets the request logger report the status before the error handler runs
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

func NewBadRequestError(message string, details any) *APIError {
	return &APIError{
		StatusCode: fiber.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		Details:    details,
	}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

func NewConflictError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusConflict,
		Code:       "CONFLICT",
		Message:    message,
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		StatusCode: fiber.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "An internal error occurred",
		Details:    err.Error(), // Only in development
	}
}

// NewErrorHandler renders APIError and fiber.Error values as JSON.
// Internal error details are hidden in production.
func NewErrorHandler(production bool, logger *slog.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c fiber.Ctx, err error) error {
		var apiErr *APIError
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &fiberErr):
			apiErr = &APIError{StatusCode: fiberErr.Code, Code: codeForStatus(fiberErr.Code), Message: fiberErr.Message}
		default:
			logger.ErrorContext(c.Context(), "Unhandled error", "path", c.Path(), "error", err)
			apiErr = NewInternalError(err)
		}

		if production && apiErr.StatusCode >= fiber.StatusInternalServerError {
			apiErr = &APIError{StatusCode: apiErr.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
		}
		return c.Status(apiErr.StatusCode).JSON(apiErr)
	}
}

// ErrorHandler is the development error handler
func ErrorHandler(c fiber.Ctx, err error) error {
	return NewErrorHandler(false, nil)(c, err)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusConflict:
		return "CONFLICT"
	default:
		if status >= fiber.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}
