package service

import (
	"context"

	"github.com/pkg/errors"

	"vendingmachine/internal/auth"
	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
	"vendingmachine/internal/repository"
)

// OrderService reads back completed purchases.
type OrderService struct {
	store repository.Store
}

func NewOrderService(store repository.Store) *OrderService {
	return &OrderService{store: store}
}

// GetOrder returns one of the caller's orders. Orders of other users are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, p auth.Principal, orderNo string) (*model.PurchaseOrder, error) {
	order, err := s.store.Orders().GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order.UserID != p.UserID {
		return nil, errors.WithMessage(ledger.ErrNotFound, "order "+orderNo)
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, p auth.Principal, page, pageSize int) ([]*model.PurchaseOrder, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.store.Orders().ListByUserID(ctx, p.UserID, page, pageSize)
}
