package ledger

import "errors"

// Every failure a ledger operation can surface. Only ErrContentionTimeout is
// retryable; the rest need caller correction. Operations never partially
// apply: any error aborts the whole unit of work.
var (
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrOverSell          = errors.New("sell quantity exceeds remaining position quantity")
	ErrInvalidState      = errors.New("operation not allowed in current position state")
	ErrContentionTimeout = errors.New("account is busy, retry")
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrAccountReferenced = errors.New("account still has positions or cash transactions")
)
