package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashmitsharp/trackmoney-api/internal/ledger"
	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/shopspring/decimal"
)

// MaxDescriptionLength bounds the free-text description
const MaxDescriptionLength = 200

// AmountInput accepts an amount sent either as a JSON number or a string
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}
	*a = AmountInput(data)
	return nil
}

// TransactionInput is what a client submits to add a transaction
type TransactionInput struct {
	Description string      `json:"description"`
	Amount      AmountInput `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	// Date is optional, YYYY-MM-DD or M/D/YYYY; defaults to now
	Date string `json:"date,omitempty"`
}

// ValidatedTransaction is a TransactionInput that passed validation
type ValidatedTransaction struct {
	Description string
	Amount      decimal.Decimal
	Type        models.TransactionType
	Category    string
	Date        *time.Time
}

// ValidationError describes one invalid field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is every problem found in one input
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var inputDateLayouts = []string{"2006-01-02", models.DisplayDateLayout, time.RFC3339}

// ValidateTransactionInput checks a submitted transaction before it reaches the ledger.
// A missing category defaults to Other; a category outside the active lists is kept as is.
func ValidateTransactionInput(in TransactionInput) (ValidatedTransaction, error) {
	var (
		out  ValidatedTransaction
		errs ValidationErrors
	)

	out.Description = strings.TrimSpace(in.Description)
	switch {
	case out.Description == "":
		errs = append(errs, ValidationError{Field: "description", Message: "description is required"})
	case len(out.Description) > MaxDescriptionLength:
		errs = append(errs, ValidationError{Field: "description", Message: fmt.Sprintf("description cannot exceed %d characters", MaxDescriptionLength)})
	}

	rawAmount := strings.TrimSpace(string(in.Amount))
	if rawAmount == "" {
		errs = append(errs, ValidationError{Field: "amount", Message: "amount is required"})
	} else if amount, err := decimal.NewFromString(rawAmount); err != nil {
		errs = append(errs, ValidationError{Field: "amount", Message: "amount must be a number"})
	} else if !amount.IsPositive() {
		errs = append(errs, ValidationError{Field: "amount", Message: "amount must be greater than zero"})
	} else if normalized, err := ledger.NormalizeAmount(amount); errors.Is(err, ledger.ErrAmountTooLarge) {
		errs = append(errs, ValidationError{Field: "amount", Message: fmt.Sprintf("amount cannot exceed %s", ledger.MaxAmount)})
	} else if err != nil {
		errs = append(errs, ValidationError{Field: "amount", Message: "amount cannot have more than 2 decimal places"})
	} else {
		out.Amount = normalized
	}

	out.Type = models.TransactionType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !out.Type.Valid() {
		errs = append(errs, ValidationError{Field: "type", Message: "type must be expense or income"})
	}

	out.Category = strings.TrimSpace(in.Category)
	if out.Category == "" {
		out.Category = models.CategoryOther
	}

	if d := strings.TrimSpace(in.Date); d != "" {
		parsed, ok := parseInputDate(d)
		if !ok {
			errs = append(errs, ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"})
		} else {
			out.Date = &parsed
		}
	}

	if len(errs) > 0 {
		return ValidatedTransaction{}, errs
	}
	return out, nil
}

func parseInputDate(s string) (time.Time, bool) {
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
