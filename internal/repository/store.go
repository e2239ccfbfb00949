package repository

import (
	"context"

	"github.com/pkg/errors"

	"vendingmachine/internal/model"
)

var (
	ErrOptimisticLock  = errors.New("record changed concurrently, retry")
	ErrDuplicateRecord = errors.New("record already exists")
)

// AccountRepository persists accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	// GetByIDForUpdate reads the row under a write lock when inside a
	// transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Account, error)
	// Save writes the balance if the stored version still equals
	// account.Version, then bumps the version.
	Save(ctx context.Context, account *model.Account) error
	List(ctx context.Context, page, pageSize int) ([]*model.Account, int64, error)
	// UpdateProfile writes username and password hash under the same
	// version guard as Save. A taken username yields ErrDuplicateRecord.
	UpdateProfile(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id int64) error
}

// ProductRepository persists products.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, page, pageSize int) ([]*model.Product, int64, error)
	Save(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id int64) error
	// DeleteBySeller removes every product listed by sellerID.
	DeleteBySeller(ctx context.Context, sellerID int64) (int64, error)
}

// TransactionRepository is the append-only balance ledger.
type TransactionRepository interface {
	Create(ctx context.Context, trans *model.AccountTransaction) error
	ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.AccountTransaction, int64, error)
}

// OrderRepository stores completed purchases.
type OrderRepository interface {
	Create(ctx context.Context, order *model.PurchaseOrder) error
	GetByOrderNo(ctx context.Context, orderNo string) (*model.PurchaseOrder, error)
	// GetByRequestID returns nil, nil when no order carries requestID.
	GetByRequestID(ctx context.Context, requestID string) (*model.PurchaseOrder, error)
	ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.PurchaseOrder, int64, error)
}

// OutboxRepository stores events waiting to be relayed.
type OutboxRepository interface {
	Create(ctx context.Context, msg *model.OutboxMessage) error
	GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	IncrementRetryCount(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
}

// Store groups the repositories and opens transactions over them. Inside
// Transaction, fn receives a Store whose repositories all share the same
// transaction; returning an error rolls everything back.
type Store interface {
	Accounts() AccountRepository
	Products() ProductRepository
	Transactions() TransactionRepository
	Orders() OrderRepository
	Outbox() OutboxRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
