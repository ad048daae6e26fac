package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/trackmoney-api/internal/ledger"
	"github.com/ashmitsharp/trackmoney-api/internal/middleware"
	"github.com/ashmitsharp/trackmoney-api/internal/services"
	"github.com/ashmitsharp/trackmoney-api/internal/store"
	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

// toAPIError maps service and ledger errors onto HTTP errors
func toAPIError(err error) error {
	var verrs services.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		return utils.NewBadRequestError("Validation failed", verrs)
	case errors.Is(err, services.ErrNotSignedIn):
		return utils.NewUnauthorizedError("unauthorized - user not authenticated")
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return utils.NewNotFoundError("Transaction")
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return utils.NewConflictError("Transaction already exists")
	case errors.Is(err, ledger.ErrAmountTooLarge), errors.Is(err, ledger.ErrAmountTooPrecise):
		return utils.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, ledger.ErrInvalidBalance):
		return utils.NewBadRequestError("Balance must be zero or greater", nil)
	case errors.Is(err, ledger.ErrInvalidTransaction):
		return utils.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, store.ErrInvalidUserID):
		return utils.NewBadRequestError("Invalid user id", nil)
	default:
		return utils.NewInternalError(err)
	}
}

// requireUser returns the signed-in user id or an unauthorized error
func requireUser(c fiber.Ctx) (string, error) {
	userID := middleware.UserID(c)
	if userID == "" {
		return "", utils.NewUnauthorizedError("unauthorized - user not authenticated")
	}
	return userID, nil
}
