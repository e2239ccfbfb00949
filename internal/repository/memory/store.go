// Package memory is an in-process repository.Store. Transactions are
// serialised behind one mutex and roll back by restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
	"vendingmachine/internal/repository"
)

type state struct {
	accounts     map[int64]model.Account
	products     map[int64]model.Product
	transactions []model.AccountTransaction
	orders       []model.PurchaseOrder
	outbox       []model.OutboxMessage
	seq          int64
}

func (st *state) clone() *state {
	c := &state{
		accounts:     make(map[int64]model.Account, len(st.accounts)),
		products:     make(map[int64]model.Product, len(st.products)),
		transactions: append([]model.AccountTransaction(nil), st.transactions...),
		orders:       append([]model.PurchaseOrder(nil), st.orders...),
		outbox:       append([]model.OutboxMessage(nil), st.outbox...),
		seq:          st.seq,
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	return c
}

func (st *state) nextID() int64 {
	st.seq++
	return st.seq
}

// Store implements repository.Store in memory.
type Store struct {
	mu   *sync.Mutex
	st   **state
	inTx bool
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	st := &state{
		accounts: make(map[int64]model.Account),
		products: make(map[int64]model.Product),
	}
	return &Store{mu: &sync.Mutex{}, st: &st}
}

// do runs fn with the state held. Inside a transaction the mutex is
// already held by Transaction.
func (s *Store) do(fn func(st *state) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(*s.st)
}

func (s *Store) Accounts() repository.AccountRepository         { return accounts{s} }
func (s *Store) Products() repository.ProductRepository         { return products{s} }
func (s *Store) Transactions() repository.TransactionRepository { return transactions{s} }
func (s *Store) Orders() repository.OrderRepository             { return orders{s} }
func (s *Store) Outbox() repository.OutboxRepository            { return outbox{s} }

// Transaction implements repository.Store.
func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.st).clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true}
	if err := fn(tx); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

func page[T any](rows []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []T{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// ============================================================================
// accounts
// ============================================================================

type accounts struct{ s *Store }

func (r accounts) Create(_ context.Context, account *model.Account) error {
	return r.s.do(func(st *state) error {
		for _, a := range st.accounts {
			if a.Username == account.Username {
				return errors.Wrapf(repository.ErrDuplicateRecord, "username %s", account.Username)
			}
		}
		now := time.Now()
		account.ID = st.nextID()
		account.CreatedAt, account.UpdatedAt = now, now
		st.accounts[account.ID] = *account
		return nil
	})
}

func (r accounts) GetByID(_ context.Context, id int64) (*model.Account, error) {
	var out *model.Account
	err := r.s.do(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return accountNotFound(id)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r accounts) GetByIDForUpdate(ctx context.Context, id int64) (*model.Account, error) {
	return r.GetByID(ctx, id)
}

func (r accounts) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	var out *model.Account
	err := r.s.do(func(st *state) error {
		for _, a := range st.accounts {
			if a.Username == username {
				a := a
				out = &a
				return nil
			}
		}
		return errors.WithMessage(ledger.ErrNotFound, "account "+username)
	})
	return out, err
}

func (r accounts) Save(_ context.Context, account *model.Account) error {
	return r.s.do(func(st *state) error {
		stored, ok := st.accounts[account.ID]
		if !ok {
			return accountNotFound(account.ID)
		}
		if stored.Version != account.Version {
			return errors.Wrapf(repository.ErrOptimisticLock, "account %d", account.ID)
		}
		stored.Balance = account.Balance
		stored.Version++
		stored.UpdatedAt = time.Now()
		st.accounts[account.ID] = stored
		account.Version = stored.Version
		return nil
	})
}

func accountNotFound(id int64) error {
	return errors.WithMessage(ledger.ErrNotFound, "account "+strconv.FormatInt(id, 10))
}

func (r accounts) List(_ context.Context, pg, pageSize int) ([]*model.Account, int64, error) {
	var out []*model.Account
	var total int64
	err := r.s.do(func(st *state) error {
		all := make([]model.Account, 0, len(st.accounts))
		for _, a := range st.accounts {
			all = append(all, a)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		total = int64(len(all))
		for _, a := range page(all, pg, pageSize) {
			a := a
			out = append(out, &a)
		}
		return nil
	})
	return out, total, err
}

func (r accounts) UpdateProfile(_ context.Context, account *model.Account) error {
	return r.s.do(func(st *state) error {
		stored, ok := st.accounts[account.ID]
		if !ok {
			return accountNotFound(account.ID)
		}
		if stored.Version != account.Version {
			return errors.Wrapf(repository.ErrOptimisticLock, "account %d", account.ID)
		}
		for _, a := range st.accounts {
			if a.ID != account.ID && a.Username == account.Username {
				return errors.Wrapf(repository.ErrDuplicateRecord, "username %s", account.Username)
			}
		}
		stored.Username = account.Username
		stored.PasswordHash = account.PasswordHash
		stored.Version++
		stored.UpdatedAt = time.Now()
		st.accounts[account.ID] = stored
		account.Version = stored.Version
		return nil
	})
}

func (r accounts) Delete(_ context.Context, id int64) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.accounts[id]; !ok {
			return accountNotFound(id)
		}
		delete(st.accounts, id)
		return nil
	})
}

// ============================================================================
// products
// ============================================================================

type products struct{ s *Store }

func productNotFound(id int64) error {
	return errors.WithMessage(ledger.ErrNotFound, "product "+strconv.FormatInt(id, 10))
}

func (r products) Create(_ context.Context, product *model.Product) error {
	return r.s.do(func(st *state) error {
		now := time.Now()
		product.ID = st.nextID()
		product.CreatedAt, product.UpdatedAt = now, now
		st.products[product.ID] = *product
		return nil
	})
}

func (r products) GetByID(_ context.Context, id int64) (*model.Product, error) {
	var out *model.Product
	err := r.s.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return productNotFound(id)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r products) GetByIDForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	return r.GetByID(ctx, id)
}

func (r products) List(_ context.Context, pg, pageSize int) ([]*model.Product, int64, error) {
	var out []*model.Product
	var total int64
	err := r.s.do(func(st *state) error {
		all := make([]model.Product, 0, len(st.products))
		for _, p := range st.products {
			all = append(all, p)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		total = int64(len(all))
		for _, p := range page(all, pg, pageSize) {
			p := p
			out = append(out, &p)
		}
		return nil
	})
	return out, total, err
}

func (r products) Save(_ context.Context, product *model.Product) error {
	return r.s.do(func(st *state) error {
		stored, ok := st.products[product.ID]
		if !ok {
			return productNotFound(product.ID)
		}
		if stored.Version != product.Version {
			return errors.Wrapf(repository.ErrOptimisticLock, "product %d", product.ID)
		}
		stored.Name = product.Name
		stored.Price = product.Price
		stored.AmountAvailable = product.AmountAvailable
		stored.Version++
		stored.UpdatedAt = time.Now()
		st.products[product.ID] = stored
		product.Version = stored.Version
		return nil
	})
}

func (r products) Delete(_ context.Context, id int64) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return productNotFound(id)
		}
		delete(st.products, id)
		return nil
	})
}

func (r products) DeleteBySeller(_ context.Context, sellerID int64) (int64, error) {
	var n int64
	err := r.s.do(func(st *state) error {
		for id, p := range st.products {
			if p.SellerID == sellerID {
				delete(st.products, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// ============================================================================
// balance ledger, orders, outbox
// ============================================================================

type transactions struct{ s *Store }

func (r transactions) Create(_ context.Context, trans *model.AccountTransaction) error {
	return r.s.do(func(st *state) error {
		trans.ID = st.nextID()
		trans.CreatedAt = time.Now()
		st.transactions = append(st.transactions, *trans)
		return nil
	})
}

func (r transactions) ListByUserID(_ context.Context, userID int64, pg, pageSize int) ([]*model.AccountTransaction, int64, error) {
	var out []*model.AccountTransaction
	var total int64
	err := r.s.do(func(st *state) error {
		var mine []model.AccountTransaction
		for i := len(st.transactions) - 1; i >= 0; i-- {
			if st.transactions[i].UserID == userID {
				mine = append(mine, st.transactions[i])
			}
		}
		total = int64(len(mine))
		for _, t := range page(mine, pg, pageSize) {
			t := t
			out = append(out, &t)
		}
		return nil
	})
	return out, total, err
}

type orders struct{ s *Store }

func (r orders) Create(_ context.Context, order *model.PurchaseOrder) error {
	return r.s.do(func(st *state) error {
		for _, o := range st.orders {
			if o.RequestID == order.RequestID {
				return errors.Wrapf(repository.ErrDuplicateRecord, "request %s", order.RequestID)
			}
		}
		order.ID = st.nextID()
		order.CreatedAt = time.Now()
		st.orders = append(st.orders, *order)
		return nil
	})
}

func (r orders) GetByOrderNo(_ context.Context, orderNo string) (*model.PurchaseOrder, error) {
	var out *model.PurchaseOrder
	err := r.s.do(func(st *state) error {
		for _, o := range st.orders {
			if o.OrderNo == orderNo {
				o := o
				out = &o
				return nil
			}
		}
		return errors.WithMessage(ledger.ErrNotFound, "order "+orderNo)
	})
	return out, err
}

func (r orders) GetByRequestID(_ context.Context, requestID string) (*model.PurchaseOrder, error) {
	var out *model.PurchaseOrder
	err := r.s.do(func(st *state) error {
		for _, o := range st.orders {
			if o.RequestID == requestID {
				o := o
				out = &o
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r orders) ListByUserID(_ context.Context, userID int64, pg, pageSize int) ([]*model.PurchaseOrder, int64, error) {
	var out []*model.PurchaseOrder
	var total int64
	err := r.s.do(func(st *state) error {
		var mine []model.PurchaseOrder
		for i := len(st.orders) - 1; i >= 0; i-- {
			if st.orders[i].UserID == userID {
				mine = append(mine, st.orders[i])
			}
		}
		total = int64(len(mine))
		for _, o := range page(mine, pg, pageSize) {
			o := o
			out = append(out, &o)
		}
		return nil
	})
	return out, total, err
}

type outbox struct{ s *Store }

func (r outbox) Create(_ context.Context, msg *model.OutboxMessage) error {
	return r.s.do(func(st *state) error {
		now := time.Now()
		msg.ID = st.nextID()
		if msg.Status == "" {
			msg.Status = model.OutboxStatusPending
		}
		msg.CreatedAt, msg.UpdatedAt = now, now
		st.outbox = append(st.outbox, *msg)
		return nil
	})
}

func (r outbox) GetPendingMessages(_ context.Context, limit int) ([]*model.OutboxMessage, error) {
	var out []*model.OutboxMessage
	err := r.s.do(func(st *state) error {
		for _, m := range st.outbox {
			if len(out) >= limit {
				break
			}
			if m.Status == model.OutboxStatusPending {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (r outbox) update(id int64, fn func(m *model.OutboxMessage)) error {
	return r.s.do(func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				fn(&st.outbox[i])
				st.outbox[i].UpdatedAt = time.Now()
				return nil
			}
		}
		return nil
	})
}

func (r outbox) UpdateStatus(_ context.Context, id int64, status string) error {
	return r.update(id, func(m *model.OutboxMessage) { m.Status = status })
}

func (r outbox) IncrementRetryCount(_ context.Context, id int64) error {
	return r.update(id, func(m *model.OutboxMessage) { m.RetryCount++ })
}

func (r outbox) MarkAsFailed(_ context.Context, id int64) error {
	return r.update(id, func(m *model.OutboxMessage) { m.Status = model.OutboxStatusFailed })
}
