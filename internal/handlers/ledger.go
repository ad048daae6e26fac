package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/trackmoney-api/internal/charts"
	"github.com/ashmitsharp/trackmoney-api/internal/ledger"
	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/ashmitsharp/trackmoney-api/internal/services"
)

// LedgerService is what the handlers need from services.LedgerService
type LedgerService interface {
	Snapshot(ctx context.Context, userID string) (services.Snapshot, error)
	Profile(ctx context.Context, userID string) (models.Profile, error)
	AddTransaction(ctx context.Context, userID string, in services.TransactionInput) (models.Transaction, services.Snapshot, error)
	DeleteTransaction(ctx context.Context, userID, id string) (services.Snapshot, error)
	ImportTransactions(ctx context.Context, userID string, batch services.ParsedBatch) (services.ImportResult, error)
	SetBalance(ctx context.Context, userID string, kind ledger.Kind, value decimal.Decimal) (services.Snapshot, error)
	ResetBalance(ctx context.Context, userID string, kind ledger.Kind) (services.Snapshot, error)
	Charts(ctx context.Context, userID string, typ models.TransactionType) (charts.Dataset, error)
	SetChartsVisible(ctx context.Context, userID string, visible bool) error
	RecordLogin(ctx context.Context, userID string, profile models.Profile) (models.Profile, error)
	RecordSignUp(ctx context.Context, userID string, profile models.Profile) (models.Profile, error)
	Close(ctx context.Context, userID string) error
}

// LedgerHandler serves the whole ledger and the static category sets
type LedgerHandler struct {
	ledger LedgerService
}

func NewLedgerHandler(svc LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: svc}
}

// GetLedger handles GET /v1/ledger
func (h *LedgerHandler) GetLedger(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	snap, err := h.ledger.Snapshot(c.Context(), userID)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(snap)
}

type CategoriesResponse struct {
	Expense []string `json:"expense"`
	Income  []string `json:"income"`
	Debt    []string `json:"debt"`
	Savings []string `json:"savings"`
}

// GetCategories handles GET /v1/categories
func (h *LedgerHandler) GetCategories(c fiber.Ctx) error {
	return c.JSON(CategoriesResponse{
		Expense: models.ExpenseCategories(),
		Income:  models.IncomeCategories(),
		Debt:    models.DebtCategories(),
		Savings: models.SavingsCategories(),
	})
}
