package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendingmachine/internal/auth"
	"vendingmachine/internal/infrastructure/lock"
	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
	"vendingmachine/internal/repository"
)

type ProductService struct {
	store  repository.Store
	locker lock.Locker
}

func NewProductService(store repository.Store, locker lock.Locker) *ProductService {
	return &ProductService{store: store, locker: locker}
}

// MaxProductPrice caps a unit price at 1,000,000.00.
const MaxProductPrice int64 = 100_000_000

type CreateProductRequest struct {
	Name            string `json:"product_name"`
	Price           int64  `json:"cost"`
	AmountAvailable int64  `json:"amount_available"`
}

// UpdateProductRequest changes only the fields that are set.
type UpdateProductRequest struct {
	Name            *string `json:"product_name"`
	Price           *int64  `json:"cost"`
	AmountAvailable *int64  `json:"amount_available"`
}

// validateProduct trims the name and enforces price in steps of the
// smallest coin.
func validateProduct(p *model.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.WithMessage(ErrInvalidArgument, "product_name must not be empty")
	}
	if p.Price <= 0 || p.Price%ledger.Denominations[len(ledger.Denominations)-1] != 0 {
		return errors.WithMessagef(ErrInvalidArgument, "cost must be a positive multiple of 5, got %d", p.Price)
	}
	if p.Price > MaxProductPrice {
		return errors.WithMessagef(ErrInvalidArgument, "cost must not exceed %d, got %d", MaxProductPrice, p.Price)
	}
	if p.AmountAvailable < 0 {
		return errors.WithMessagef(ErrInvalidArgument, "amount_available must not be negative, got %d", p.AmountAvailable)
	}
	return nil
}

func (s *ProductService) List(ctx context.Context, page, pageSize int) ([]*model.Product, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.store.Products().List(ctx, page, pageSize)
}

func (s *ProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	return s.store.Products().GetByID(ctx, id)
}

// Create lists a new product owned by the calling seller.
func (s *ProductService) Create(ctx context.Context, p auth.Principal, req *CreateProductRequest) (*model.Product, error) {
	if p.Role != model.RoleSeller {
		return nil, errors.WithMessage(ledger.ErrRoleViolation, `only users with a "seller" role can create products`)
	}

	product := &model.Product{
		Name:            req.Name,
		Price:           req.Price,
		AmountAvailable: req.AmountAvailable,
		SellerID:        p.UserID,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, errors.Wrap(err, "create product")
	}

	zap.S().Infof("[Product] created: id=%d, seller=%d, name=%s", product.ID, product.SellerID, product.Name)
	return product, nil
}

// Update edits a product. Only the seller that listed it may do so.
func (s *ProductService) Update(ctx context.Context, p auth.Principal, id int64, req *UpdateProductRequest) (*model.Product, error) {
	var result *model.Product
	err := withLocks(ctx, s.locker, func() error {
		return s.store.Transaction(ctx, func(tx repository.Store) error {
			product, err := tx.Products().GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !ledger.CheckOwnership(*product, p.UserID) {
				return errors.WithMessage(ledger.ErrRoleViolation, "only the seller who listed the product can change it")
			}

			if req.Name != nil {
				product.Name = *req.Name
			}
			if req.Price != nil {
				product.Price = *req.Price
			}
			if req.AmountAvailable != nil {
				product.AmountAvailable = *req.AmountAvailable
			}
			if err := validateProduct(product); err != nil {
				return err
			}
			if err := tx.Products().Save(ctx, product); err != nil {
				return err
			}
			result = product
			return nil
		})
	}, lock.ProductKey(id))
	if err != nil {
		return nil, err
	}

	zap.S().Infof("[Product] updated: id=%d, price=%d, stock=%d", result.ID, result.Price, result.AmountAvailable)
	return result, nil
}

// Delete removes a product. Only the seller that listed it may do so.
func (s *ProductService) Delete(ctx context.Context, p auth.Principal, id int64) error {
	err := withLocks(ctx, s.locker, func() error {
		return s.store.Transaction(ctx, func(tx repository.Store) error {
			product, err := tx.Products().GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !ledger.CheckOwnership(*product, p.UserID) {
				return errors.WithMessage(ledger.ErrRoleViolation, "only the seller who listed the product can delete it")
			}
			return tx.Products().Delete(ctx, id)
		})
	}, lock.ProductKey(id))
	if err != nil {
		return err
	}

	zap.S().Infof("[Product] deleted: id=%d, seller=%d", id, p.UserID)
	return nil
}
