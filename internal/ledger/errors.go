package ledger

import "errors"

var (
	ErrInvalidTransaction   = errors.New("invalid transaction")
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInvalidBalance       = errors.New("invalid balance")
)
