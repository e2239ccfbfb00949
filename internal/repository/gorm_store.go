package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormStore is the Store backed by MySQL or Postgres.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Accounts() AccountRepository         { return &accountRepo{db: s.db} }
func (s *GormStore) Products() ProductRepository         { return &productRepo{db: s.db} }
func (s *GormStore) Transactions() TransactionRepository { return &transactionRepo{db: s.db} }
func (s *GormStore) Orders() OrderRepository             { return &orderRepo{db: s.db} }
func (s *GormStore) Outbox() OutboxRepository            { return &outboxRepo{db: s.db} }

// Transaction runs fn inside a database transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// isDuplicate relies on gorm.Config.TranslateError being enabled.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func pageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
