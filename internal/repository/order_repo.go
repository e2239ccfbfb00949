package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
)

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Create(ctx context.Context, order *model.PurchaseOrder) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if isDuplicate(err) {
		return errors.Wrapf(ErrDuplicateRecord, "request %s", order.RequestID)
	}
	return err
}

func (r *orderRepo) GetByOrderNo(ctx context.Context, orderNo string) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithMessage(ledger.ErrNotFound, "order "+orderNo)
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) GetByRequestID(ctx context.Context, requestID string) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.PurchaseOrder, int64, error) {
	var orders []*model.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("id DESC").
		Offset(pageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}
