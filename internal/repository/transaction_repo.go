package repository

import (
	"context"

	"gorm.io/gorm"

	"vendingmachine/internal/model"
)

type transactionRepo struct {
	db *gorm.DB
}

func (r *transactionRepo) Create(ctx context.Context, trans *model.AccountTransaction) error {
	return r.db.WithContext(ctx).Create(trans).Error
}

func (r *transactionRepo) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.AccountTransaction, int64, error) {
	var transactions []*model.AccountTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.AccountTransaction{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("id DESC").
		Offset(pageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}
