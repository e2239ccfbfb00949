package ledger

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendingmachine/internal/model"
)

func product(price, stock int64) model.Product {
	return model.Product{ID: 10, Name: "Cola", Price: price, AmountAvailable: stock, SellerID: 2}
}

func TestDecrementStock(t *testing.T) {
	updated, err := DecrementStock(product(20, 10), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), updated.AmountAvailable)

	updated, err = DecrementStock(product(20, 3), 3)
	require.NoError(t, err)
	assert.Zero(t, updated.AmountAvailable)
}

func TestDecrementStockRejects(t *testing.T) {
	_, err := DecrementStock(product(20, 10), 0)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	_, err = DecrementStock(product(20, 10), -1)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	updated, err := DecrementStock(product(20, 2), 3)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, int64(2), updated.AmountAvailable)
}

func TestCheckOwnership(t *testing.T) {
	p := product(20, 1)
	assert.True(t, CheckOwnership(p, 2))
	assert.False(t, CheckOwnership(p, 3))
}
