package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/trackmoney-api/internal/ledger"
)

type SummaryHandler struct {
	ledger LedgerService
}

func NewSummaryHandler(svc LedgerService) *SummaryHandler {
	return &SummaryHandler{ledger: svc}
}

type KPIsResponse struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	GeneralBalance   decimal.Decimal `json:"general_balance"`
	DebtBalance      decimal.Decimal `json:"debt_balance"`
	SavingsBalance   decimal.Decimal `json:"savings_balance"`
	TransactionCount int             `json:"transaction_count"`
}

type SummaryResponse struct {
	KPIs        KPIsResponse           `json:"kpis"`
	DebtMode    ledger.Mode            `json:"debt_mode"`
	SavingsMode ledger.Mode            `json:"savings_mode"`
	Categories  []ledger.CategoryShare `json:"categories"`
}

// GetSummary handles GET /v1/summary
func (h *SummaryHandler) GetSummary(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	snap, err := h.ledger.Snapshot(c.Context(), userID)
	if err != nil {
		return toAPIError(err)
	}

	b := snap.Balances
	return c.JSON(SummaryResponse{
		KPIs: KPIsResponse{
			TotalIncome:      b.TotalIncome,
			TotalExpenses:    b.TotalExpenses,
			GeneralBalance:   b.General,
			DebtBalance:      b.Debt,
			SavingsBalance:   b.Savings,
			TransactionCount: len(snap.Transactions),
		},
		DebtMode:    snap.Debt.Mode(),
		SavingsMode: snap.Savings.Mode(),
		Categories:  snap.Breakdown,
	})
}
