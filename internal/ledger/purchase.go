package ledger

import (
	"fmt"

	"github.com/pkg/errors"

	"vendingmachine/internal/model"
)

// Receipt is the transient result of a purchase.
type Receipt struct {
	TotalSpent        int64       `json:"total_spent"`
	ProductsPurchased string      `json:"products_purchased"`
	Change            []CoinCount `json:"change"`
	ChangeRemainder   int64       `json:"change_remainder,omitempty"`
}

// NewReceipt builds a receipt, breaking balanceAfter down into coins.
func NewReceipt(totalSpent, quantity int64, productName string, balanceAfter int64) Receipt {
	change := ComputeChange(balanceAfter)
	return Receipt{
		TotalSpent:        totalSpent,
		ProductsPurchased: Describe(quantity, productName),
		Change:            change.Coins,
		ChangeRemainder:   change.Remainder,
	}
}

// PurchaseResult carries the updated records next to the receipt. Nothing
// is applied to storage until the caller saves Buyer and Product.
type PurchaseResult struct {
	Buyer   model.Account
	Product model.Product
	Receipt Receipt
}

// Describe renders the human readable purchase line, e.g. "3 units of Cola".
func Describe(quantity int64, productName string) string {
	return fmt.Sprintf("%d units of %s", quantity, productName)
}

// Purchase validates and applies one buyer-initiated purchase.
//
// Checks run in a fixed order: role, quantity, stock, funds. Both ledgers
// are only touched after every check passed, so either both updates are
// returned or neither is.
//
// The change breakdown covers the buyer's whole remaining balance, not the
// difference between a tendered amount and the cost.
func Purchase(buyer model.Account, product model.Product, quantity int64) (*PurchaseResult, error) {
	if buyer.Role != model.RoleBuyer {
		return nil, errors.WithMessage(ErrRoleViolation, `only users with a "buyer" role can buy products`)
	}
	if quantity <= 0 {
		return nil, errors.Wrapf(ErrInvalidQuantity, "got %d", quantity)
	}
	if quantity > product.AmountAvailable {
		return nil, errors.Wrapf(ErrInsufficientStock, "%d available, %d requested", product.AmountAvailable, quantity)
	}

	if product.Price < 0 {
		return nil, errors.Errorf("product %d has a negative price", product.ID)
	}
	// compare by division first so price*quantity cannot overflow
	if product.Price > 0 && quantity > buyer.Balance/product.Price {
		return nil, errors.Wrapf(ErrInsufficientFunds, "balance %d, unit price %d, quantity %d", buyer.Balance, product.Price, quantity)
	}
	totalCost := product.Price * quantity

	updatedBuyer, err := Withdraw(buyer, totalCost)
	if err != nil {
		return nil, err
	}
	updatedProduct, err := DecrementStock(product, quantity)
	if err != nil {
		return nil, err
	}

	return &PurchaseResult{
		Buyer:   updatedBuyer,
		Product: updatedProduct,
		Receipt: NewReceipt(totalCost, quantity, product.Name, updatedBuyer.Balance),
	}, nil
}
