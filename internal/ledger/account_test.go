package ledger

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendingmachine/internal/model"
)

func buyer(balance int64) model.Account {
	return model.Account{ID: 1, Username: "bob", Role: model.RoleBuyer, Balance: balance}
}

func seller() model.Account {
	return model.Account{ID: 2, Username: "sally", Role: model.RoleSeller}
}

func TestDepositValidDenominations(t *testing.T) {
	for _, d := range Denominations {
		acc := buyer(35)
		updated, err := Deposit(acc, d)
		require.NoError(t, err)
		assert.Equal(t, int64(35)+d, updated.Balance)
		assert.Equal(t, int64(35), acc.Balance, "input must not be mutated")
	}
}

func TestDepositInvalidDenomination(t *testing.T) {
	for _, amount := range []int64{0, 7, 15, 99, 500, -5} {
		acc := buyer(20)
		updated, err := Deposit(acc, amount)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidDenomination))
		assert.Equal(t, int64(20), updated.Balance)
	}
}

func TestDepositSellerRejected(t *testing.T) {
	_, err := Deposit(seller(), 50)
	assert.True(t, errors.Is(err, ErrRoleViolation))
}

func TestDepositInvalidAmountCheckedBeforeRole(t *testing.T) {
	_, err := Deposit(seller(), 7)
	assert.True(t, errors.Is(err, ErrInvalidDenomination))
}

func TestWithdraw(t *testing.T) {
	updated, err := Withdraw(buyer(100), 60)
	require.NoError(t, err)
	assert.Equal(t, int64(40), updated.Balance)

	updated, err = Withdraw(buyer(100), 100)
	require.NoError(t, err)
	assert.Zero(t, updated.Balance)

	updated, err = Withdraw(buyer(10), 15)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, int64(10), updated.Balance)
}

func TestResetDeposit(t *testing.T) {
	for _, balance := range []int64{0, 5, 385} {
		updated, err := ResetDeposit(buyer(balance))
		require.NoError(t, err)
		assert.Zero(t, updated.Balance)
	}

	_, err := ResetDeposit(seller())
	assert.True(t, errors.Is(err, ErrRoleViolation))
}
