package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/ashmitsharp/trackmoney-api/internal/services"
	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

type CategoryHandler struct {
	categorizer *services.Categorizer
}

func NewCategoryHandler(categorizer *services.Categorizer) *CategoryHandler {
	return &CategoryHandler{categorizer: categorizer}
}

// SuggestCategory handles GET /v1/categories/suggest?description=...&type=expense|income
func (h *CategoryHandler) SuggestCategory(c fiber.Ctx) error {
	description := strings.TrimSpace(c.Query("description"))
	if description == "" {
		return utils.NewBadRequestError("description is required", nil)
	}

	typ := models.TransactionType(strings.ToLower(c.Query("type", string(models.TransactionTypeExpense))))
	if !typ.Valid() {
		return utils.NewBadRequestError("type must be expense or income", nil)
	}

	return c.JSON(h.categorizer.Suggest(description, typ))
}
