package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
)

type accountRepo struct {
	db *gorm.DB
}

func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if isDuplicate(err) {
		return errors.Wrapf(ErrDuplicateRecord, "username %s", account.Username)
	}
	return err
}

func (r *accountRepo) first(query *gorm.DB, desc string) (*model.Account, error) {
	var account model.Account
	err := query.First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithMessage(ledger.ErrNotFound, "account "+desc)
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id), idString(id))
}

func (r *accountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.first(r.db.WithContext(ctx).Where("username = ?", username), username)
}

func (r *accountRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Account, error) {
	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id)
	return r.first(query, idString(id))
}

func (r *accountRepo) Save(ctx context.Context, account *model.Account) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"balance": account.Balance,
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, account.ID); err != nil {
			return err
		}
		return errors.Wrapf(ErrOptimisticLock, "account %d", account.ID)
	}

	account.Version++
	return nil
}

func (r *accountRepo) List(ctx context.Context, page, pageSize int) ([]*model.Account, int64, error) {
	var accounts []*model.Account
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Account{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("id ASC").
		Offset(pageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&accounts).Error

	return accounts, total, err
}

// UpdateProfile writes username and password hash under the version guard.
func (r *accountRepo) UpdateProfile(ctx context.Context, account *model.Account) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"username":      account.Username,
			"password_hash": account.PasswordHash,
			"version":       gorm.Expr("version + 1"),
		})

	if isDuplicate(result.Error) {
		return errors.Wrapf(ErrDuplicateRecord, "username %s", account.Username)
	}
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, account.ID); err != nil {
			return err
		}
		return errors.Wrapf(ErrOptimisticLock, "account %d", account.ID)
	}

	account.Version++
	return nil
}

func (r *accountRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Account{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.WithMessage(ledger.ErrNotFound, "account "+idString(id))
	}
	return nil
}
