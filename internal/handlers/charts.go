package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

type ChartsHandler struct {
	ledger LedgerService
}

func NewChartsHandler(svc LedgerService) *ChartsHandler {
	return &ChartsHandler{ledger: svc}
}

type VisibilityRequest struct {
	Visible *bool `json:"visible"`
}

// GetCharts handles GET /v1/charts?type=expense|income
func (h *ChartsHandler) GetCharts(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	typ := models.TransactionType(c.Query("type", string(models.TransactionTypeExpense)))
	ds, err := h.ledger.Charts(c.Context(), userID, typ)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(ds)
}

// SetVisibility handles POST /v1/charts/visibility
func (h *ChartsHandler) SetVisibility(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req VisibilityRequest
	if err := c.Bind().JSON(&req); err != nil || req.Visible == nil {
		return utils.NewBadRequestError("visible is required", nil)
	}

	if err := h.ledger.SetChartsVisible(c.Context(), userID, *req.Visible); err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"visible": *req.Visible})
}
