package ledger

import (
	"github.com/pkg/errors"

	"vendingmachine/internal/model"
)

// ============================================================================
// Account ledger
// ============================================================================
//
// All functions take the account by value and return the updated copy, so a
// failed call never leaves a half-applied state behind. Persisting the result
// is the caller's job.

// Deposit adds one coin to a buyer's balance.
func Deposit(account model.Account, amount int64) (model.Account, error) {
	if !IsValidDenomination(amount) {
		return account, errors.Wrapf(ErrInvalidDenomination, "amount %d, accepted values are 5, 10, 20, 50 and 100", amount)
	}
	if account.Role != model.RoleBuyer {
		return account, errors.WithMessage(ErrRoleViolation, "only buyers can deposit coins")
	}

	account.Balance += amount
	return account, nil
}

// Withdraw debits amount from the balance. It is used by the purchase
// engine only.
func Withdraw(account model.Account, amount int64) (model.Account, error) {
	if amount < 0 {
		return account, errors.Errorf("withdraw amount must not be negative: %d", amount)
	}
	if amount > account.Balance {
		return account, errors.Wrapf(ErrInsufficientFunds, "balance %d, required %d", account.Balance, amount)
	}

	account.Balance -= amount
	return account, nil
}

// ResetDeposit sets a buyer's balance to zero.
func ResetDeposit(account model.Account) (model.Account, error) {
	if account.Role != model.RoleBuyer {
		return account, errors.WithMessage(ErrRoleViolation, "only buyers can reset their deposit")
	}

	account.Balance = 0
	return account, nil
}
