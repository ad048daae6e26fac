package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/ashmitsharp/trackmoney-api/internal/store"
	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

type UsersHandler struct {
	ledger LedgerService
}

func NewUsersHandler(svc LedgerService) *UsersHandler {
	return &UsersHandler{ledger: svc}
}

type CreateUserRequest struct {
	ClerkUserID string `json:"clerk_user_id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
}

type SessionRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type UserResponse struct {
	UserID  string         `json:"user_id"`
	Profile models.Profile `json:"profile"`
}

// CreateUser records a new account's profile (called by Clerk webhook)
func (h *UsersHandler) CreateUser(c fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Validate required fields
	if req.ClerkUserID == "" || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "clerk_user_id and email are required",
		})
	}
	if err := store.ValidateUserID(req.ClerkUserID); err != nil {
		return toAPIError(err)
	}

	profile, err := h.ledger.RecordSignUp(c.Context(), req.ClerkUserID, models.Profile{
		Name:  req.FullName,
		Email: req.Email,
	})
	if err != nil {
		return toAPIError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(UserResponse{UserID: req.ClerkUserID, Profile: profile})
}

// GetUser returns the signed-in user's profile
func (h *UsersHandler) GetUser(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	profile, err := h.ledger.Profile(c.Context(), userID)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(UserResponse{UserID: userID, Profile: profile})
}

// StartSession handles POST /v1/session: opens the ledger and records the login
func (h *UsersHandler) StartSession(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req SessionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return utils.NewBadRequestError("Invalid request body", nil)
		}
	}

	profile, err := h.ledger.RecordLogin(c.Context(), userID, models.Profile{
		Name:  req.FullName,
		Email: req.Email,
	})
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(UserResponse{UserID: userID, Profile: profile})
}

// EndSession handles DELETE /v1/session: the in-memory ledger is discarded
func (h *UsersHandler) EndSession(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.ledger.Close(c.Context(), userID); err != nil {
		return toAPIError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
