package ledger

import (
	"github.com/pkg/errors"
)

// Error kinds surfaced by the core. Callers match them with errors.Is;
// lower layers wrap them with context.
var (
	ErrRoleViolation       = errors.New("role not permitted for this operation")
	ErrInvalidDenomination = errors.New("invalid coin denomination")
	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("authentication credentials were not provided")
)
