package ledger

import (
	"github.com/pkg/errors"

	"vendingmachine/internal/model"
)

// DecrementStock removes quantity units from the product's available stock.
func DecrementStock(product model.Product, quantity int64) (model.Product, error) {
	if quantity <= 0 {
		return product, errors.Wrapf(ErrInvalidQuantity, "got %d", quantity)
	}
	if quantity > product.AmountAvailable {
		return product, errors.Wrapf(ErrInsufficientStock, "%d available, %d requested", product.AmountAvailable, quantity)
	}

	product.AmountAvailable -= quantity
	if product.AmountAvailable < 0 {
		product.AmountAvailable = 0
	}
	return product, nil
}

// CheckOwnership reports whether actorID is the seller who owns the product.
func CheckOwnership(product model.Product, actorID int64) bool {
	return product.SellerID == actorID
}
