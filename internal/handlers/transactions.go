package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/ashmitsharp/trackmoney-api/internal/services"
	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	ledger LedgerService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(svc LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: svc}
}

type TransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Total        int                  `json:"total"`
}

type AddTransactionResponse struct {
	Transaction models.Transaction `json:"transaction"`
	Ledger      services.Snapshot  `json:"ledger"`
}

// GetTransactions returns the log in insertion order
// GET /v1/transactions?type=all|expense|income
func (h *TransactionHandler) GetTransactions(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	filter := c.Query("type", "all")
	if filter != "all" && !models.TransactionType(filter).Valid() {
		return utils.NewBadRequestError("type must be all, expense or income", nil)
	}

	snap, err := h.ledger.Snapshot(c.Context(), userID)
	if err != nil {
		return toAPIError(err)
	}

	txs := snap.Transactions
	if filter != "all" {
		txs = make([]models.Transaction, 0, len(snap.Transactions))
		for _, tx := range snap.Transactions {
			if tx.Type == models.TransactionType(filter) {
				txs = append(txs, tx)
			}
		}
	}

	return c.JSON(TransactionsResponse{Transactions: txs, Total: len(txs)})
}

// AddTransaction handles POST /v1/transactions
func (h *TransactionHandler) AddTransaction(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req services.TransactionInput
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}

	tx, snap, err := h.ledger.AddTransaction(c.Context(), userID, req)
	if err != nil {
		return toAPIError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(AddTransactionResponse{Transaction: tx, Ledger: snap})
}

// DeleteTransaction handles DELETE /v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	if id == "" {
		return utils.NewBadRequestError("transaction id is required", nil)
	}

	snap, err := h.ledger.DeleteTransaction(c.Context(), userID, id)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(snap)
}
