package memory

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
	"vendingmachine/internal/repository"
)

func TestAccountCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	acc := &model.Account{Username: "alice", Role: model.RoleBuyer}
	require.NoError(t, s.Accounts().Create(ctx, acc))
	assert.NotZero(t, acc.ID)

	got, err := s.Accounts().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	err = s.Accounts().Create(ctx, &model.Account{Username: "alice"})
	assert.True(t, errors.Is(err, repository.ErrDuplicateRecord))

	_, err = s.Accounts().GetByID(ctx, 999)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestAccountSaveVersionGuard(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	acc := &model.Account{Username: "bob", Role: model.RoleBuyer}
	require.NoError(t, s.Accounts().Create(ctx, acc))

	first, _ := s.Accounts().GetByID(ctx, acc.ID)
	second, _ := s.Accounts().GetByID(ctx, acc.ID)

	first.Balance = 50
	require.NoError(t, s.Accounts().Save(ctx, first))
	assert.Equal(t, 1, first.Version)

	second.Balance = 100
	err := s.Accounts().Save(ctx, second)
	assert.True(t, errors.Is(err, repository.ErrOptimisticLock))

	stored, _ := s.Accounts().GetByID(ctx, acc.ID)
	assert.Equal(t, int64(50), stored.Balance)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	acc := &model.Account{Username: "carol", Role: model.RoleBuyer, Balance: 100}
	require.NoError(t, s.Accounts().Create(ctx, acc))

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx repository.Store) error {
		a, err := tx.Accounts().GetByIDForUpdate(ctx, acc.ID)
		require.NoError(t, err)
		a.Balance = 0
		require.NoError(t, tx.Accounts().Save(ctx, a))
		require.NoError(t, tx.Outbox().Create(ctx, &model.OutboxMessage{Topic: "t"}))
		return boom
	})
	assert.Equal(t, boom, err)

	stored, _ := s.Accounts().GetByID(ctx, acc.ID)
	assert.Equal(t, int64(100), stored.Balance)
	pending, _ := s.Outbox().GetPendingMessages(ctx, 10)
	assert.Empty(t, pending)
}

func TestTransactionCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	acc := &model.Account{Username: "dave", Role: model.RoleBuyer, Balance: 100}
	require.NoError(t, s.Accounts().Create(ctx, acc))

	err := s.Transaction(ctx, func(tx repository.Store) error {
		a, err := tx.Accounts().GetByIDForUpdate(ctx, acc.ID)
		if err != nil {
			return err
		}
		a.Balance = 40
		return tx.Accounts().Save(ctx, a)
	})
	require.NoError(t, err)

	stored, _ := s.Accounts().GetByID(ctx, acc.ID)
	assert.Equal(t, int64(40), stored.Balance)
}

func TestProductListPaging(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Products().Create(ctx, &model.Product{Name: "p", Price: 5, SellerID: 1}))
	}

	items, total, err := s.Products().List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, items, 2)

	items, _, err = s.Products().List(ctx, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOrderRequestID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	got, err := s.Orders().GetByRequestID(ctx, "req-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Orders().Create(ctx, &model.PurchaseOrder{RequestID: "req-1", UserID: 7}))
	got, err = s.Orders().GetByRequestID(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.UserID)

	err = s.Orders().Create(ctx, &model.PurchaseOrder{RequestID: "req-1"})
	assert.True(t, errors.Is(err, repository.ErrDuplicateRecord))
}

func TestOutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	msg := &model.OutboxMessage{Topic: "t", Payload: "{}"}
	require.NoError(t, s.Outbox().Create(ctx, msg))
	assert.Equal(t, model.OutboxStatusPending, msg.Status)

	require.NoError(t, s.Outbox().IncrementRetryCount(ctx, msg.ID))
	pending, err := s.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)

	require.NoError(t, s.Outbox().UpdateStatus(ctx, msg.ID, model.OutboxStatusSent))
	pending, _ = s.Outbox().GetPendingMessages(ctx, 10)
	assert.Empty(t, pending)
}

func TestAccountProfileAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := &model.Account{Username: "alice", Role: model.RoleSeller}
	bob := &model.Account{Username: "bob", Role: model.RoleBuyer}
	require.NoError(t, s.Accounts().Create(ctx, alice))
	require.NoError(t, s.Accounts().Create(ctx, bob))

	list, total, err := s.Accounts().List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "alice", list[0].Username)

	bob.Username = "alice"
	err = s.Accounts().UpdateProfile(ctx, bob)
	assert.True(t, errors.Is(err, repository.ErrDuplicateRecord))

	bob.Username = "robert"
	require.NoError(t, s.Accounts().UpdateProfile(ctx, bob))
	got, err := s.Accounts().GetByUsername(ctx, "robert")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)
	assert.Equal(t, model.RoleBuyer, got.Role)

	require.NoError(t, s.Products().Create(ctx, &model.Product{Name: "Cola", Price: 50, SellerID: alice.ID}))
	require.NoError(t, s.Products().Create(ctx, &model.Product{Name: "Chips", Price: 25, SellerID: alice.ID}))
	n, err := s.Products().DeleteBySeller(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.Accounts().Delete(ctx, alice.ID))
	err = s.Accounts().Delete(ctx, alice.ID)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}
