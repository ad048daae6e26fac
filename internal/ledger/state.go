// Package ledger turns a transaction log and the debt/savings overrides into balances.
//
// Everything here is pure: Apply produces a new State from an old one and an Action,
// and Derive computes every balance from a State without looking at anything else.
package ledger

import "github.com/ashmitsharp/trackmoney-api/internal/models"

// State is the whole mutable state of one user's ledger
type State struct {
	Transactions []models.Transaction `json:"transactions"`
	Debt         Override             `json:"debt"`
	Savings      Override             `json:"savings"`
}

// NewState returns an empty log with both balances automatic
func NewState() State {
	return State{
		Transactions: []models.Transaction{},
		Debt:         Automatic(),
		Savings:      Automatic(),
	}
}

// Override returns the override for kind
func (s State) Override(kind Kind) Override {
	if kind == KindSavings {
		return s.Savings
	}
	return s.Debt
}

func (s State) withOverride(kind Kind, o Override) State {
	if kind == KindSavings {
		s.Savings = o
	} else {
		s.Debt = o
	}
	return s
}

// Find returns the transaction with the given id
func (s State) Find(id string) (models.Transaction, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Transactions[i], true
	}
	return models.Transaction{}, false
}

func (s State) indexOf(id string) int {
	for i, tx := range s.Transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
