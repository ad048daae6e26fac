package ledger

import (
	"fmt"
	"strings"

	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/shopspring/decimal"
)

// Action is one user-initiated change to a State
type Action interface {
	apply(s State) (State, error)
}

// AddTransaction appends a transaction to the log
type AddTransaction struct {
	Transaction models.Transaction
}

// DeleteTransaction removes a transaction from the log
type DeleteTransaction struct {
	ID string
}

// SetOverride pins a balance to Value (AUTOMATIC -> MANUAL or MANUAL -> MANUAL)
type SetOverride struct {
	Kind  Kind
	Value decimal.Decimal
}

// ResetOverride goes back to deriving a balance from the log (MANUAL -> AUTOMATIC)
type ResetOverride struct {
	Kind Kind
}

// Apply runs action against s. s itself is never modified; on error it is returned unchanged.
func Apply(s State, action Action) (State, error) {
	next, err := action.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

// ValidateTransaction checks the invariants every logged transaction must hold
func ValidateTransaction(tx models.Transaction) error {
	switch {
	case tx.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidTransaction)
	case strings.TrimSpace(tx.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidTransaction)
	case !tx.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	case !tx.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, tx.Type)
	}
	if _, err := NormalizeAmount(tx.Amount); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	return nil
}

func (a AddTransaction) apply(s State) (State, error) {
	tx := a.Transaction
	if err := ValidateTransaction(tx); err != nil {
		return s, err
	}
	if s.indexOf(tx.ID) >= 0 {
		return s, fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.ID)
	}

	txs := make([]models.Transaction, 0, len(s.Transactions)+1)
	txs = append(txs, s.Transactions...)
	s.Transactions = append(txs, tx)

	if !tx.IsExpense() {
		return s, nil
	}

	// Pinned balances have no log to follow, so the new payment moves the baseline itself.
	if models.IsDebtCategory(tx.Category) {
		if baseline, ok := s.Debt.Baseline(); ok {
			next := clampDebt(baseline.Sub(tx.Amount))
			s.Debt = s.Debt.absorb(tx.ID, next.Sub(baseline))
		}
	}
	if models.IsSavingsCategory(tx.Category) && s.Savings.IsManual() {
		s.Savings = s.Savings.absorb(tx.ID, tx.Amount)
	}
	return s, nil
}

func (a DeleteTransaction) apply(s State) (State, error) {
	i := s.indexOf(a.ID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrTransactionNotFound, a.ID)
	}

	txs := make([]models.Transaction, 0, len(s.Transactions)-1)
	txs = append(txs, s.Transactions[:i]...)
	s.Transactions = append(txs, s.Transactions[i+1:]...)

	s.Debt = s.Debt.releaseDebt(a.ID, s.Transactions)
	s.Savings = s.Savings.release(a.ID)
	return s, nil
}

func (a SetOverride) apply(s State) (State, error) {
	if _, err := ParseKind(string(a.Kind)); err != nil {
		return s, err
	}
	if a.Value.IsNegative() {
		return s, fmt.Errorf("%w: %s balance cannot be negative", ErrInvalidBalance, a.Kind)
	}
	value, err := NormalizeAmount(a.Value)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidBalance, err)
	}
	return s.withOverride(a.Kind, Manual(value)), nil
}

func (a ResetOverride) apply(s State) (State, error) {
	if _, err := ParseKind(string(a.Kind)); err != nil {
		return s, err
	}
	return s.withOverride(a.Kind, Automatic()), nil
}
