package repository

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
)

type productRepo struct {
	db *gorm.DB
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func productNotFound(id int64) error {
	return errors.WithMessage(ledger.ErrNotFound, "product "+idString(id))
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) get(query *gorm.DB, id int64) (*model.Product, error) {
	var product model.Product
	err := query.Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(id)
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *productRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *productRepo) List(ctx context.Context, page, pageSize int) ([]*model.Product, int64, error) {
	var products []*model.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("id ASC").
		Offset(pageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&products).Error

	return products, total, err
}

// Save writes every mutable column under the version guard.
func (r *productRepo) Save(ctx context.Context, product *model.Product) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]interface{}{
			"name":             product.Name,
			"price":            product.Price,
			"amount_available": product.AmountAvailable,
			"version":          gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, product.ID); err != nil {
			return err
		}
		return errors.Wrapf(ErrOptimisticLock, "product %d", product.ID)
	}

	product.Version++
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return productNotFound(id)
	}
	return nil
}

func (r *productRepo) DeleteBySeller(ctx context.Context, sellerID int64) (int64, error) {
	result := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Delete(&model.Product{})
	return result.RowsAffected, result.Error
}
