package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/trackmoney-api/internal/ledger"
	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

// BalanceHandler switches debt and savings between manual and automatic
type BalanceHandler struct {
	ledger LedgerService
}

func NewBalanceHandler(svc LedgerService) *BalanceHandler {
	return &BalanceHandler{ledger: svc}
}

type SetBalanceRequest struct {
	Value *decimal.Decimal `json:"value"`
}

// SetBalance handles PUT /v1/balances/:kind
func (h *BalanceHandler) SetBalance(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	kind, err := ledger.ParseKind(c.Params("kind"))
	if err != nil {
		return utils.NewBadRequestError("kind must be debt or savings", nil)
	}

	var req SetBalanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}
	if req.Value == nil {
		return utils.NewBadRequestError("value is required", nil)
	}

	snap, err := h.ledger.SetBalance(c.Context(), userID, kind, *req.Value)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(snap)
}

// ResetBalance handles DELETE /v1/balances/:kind
func (h *BalanceHandler) ResetBalance(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	kind, err := ledger.ParseKind(c.Params("kind"))
	if err != nil {
		return utils.NewBadRequestError("kind must be debt or savings", nil)
	}

	snap, err := h.ledger.ResetBalance(c.Context(), userID, kind)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(snap)
}
