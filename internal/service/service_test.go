package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vendingmachine/internal/auth"
	"vendingmachine/internal/config"
	"vendingmachine/internal/infrastructure/lock"
	"vendingmachine/internal/model"
	"vendingmachine/internal/repository/memory"
)

const (
	purchaseTopic = "vending.purchase"
	accountTopic  = "vending.account"
)

type fixture struct {
	store     *memory.Store
	tokens    *auth.TokenManager
	accounts  *AccountService
	products  *ProductService
	purchases *PurchaseService
	orders    *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Kafka.Topic.Purchase = purchaseTopic
	cfg.Kafka.Topic.Account = accountTopic

	store := memory.NewStore()
	locker := lock.NewLocalLocker(lock.Options{RetryInterval: time.Millisecond, MaxRetries: 2000})
	tokens := auth.NewTokenManager("test-secret", "vending-test", time.Hour)

	return &fixture{
		store:     store,
		tokens:    tokens,
		accounts:  NewAccountService(store, locker, tokens, auth.NewMemoryDenylist(), cfg),
		products:  NewProductService(store, locker),
		purchases: NewPurchaseService(store, locker, cfg),
		orders:    NewOrderService(store),
	}
}

func (f *fixture) register(t *testing.T, username string, role model.Role) auth.Principal {
	t.Helper()
	account, err := f.accounts.Register(context.Background(), &RegisterRequest{
		Username: username,
		Password: "secret",
		Role:     role,
	})
	require.NoError(t, err)
	return auth.Principal{UserID: account.ID, Role: account.Role}
}

func (f *fixture) deposit(t *testing.T, p auth.Principal, coins ...int64) {
	t.Helper()
	for _, c := range coins {
		_, err := f.accounts.Deposit(context.Background(), p, c)
		require.NoError(t, err)
	}
}

func (f *fixture) listProduct(t *testing.T, seller auth.Principal, name string, price, stock int64) *model.Product {
	t.Helper()
	product, err := f.products.Create(context.Background(), seller, &CreateProductRequest{
		Name:            name,
		Price:           price,
		AmountAvailable: stock,
	})
	require.NoError(t, err)
	return product
}

func (f *fixture) balance(t *testing.T, p auth.Principal) int64 {
	t.Helper()
	account, err := f.accounts.GetAccount(context.Background(), p)
	require.NoError(t, err)
	return account.Balance
}

func (f *fixture) stock(t *testing.T, id int64) int64 {
	t.Helper()
	product, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return product.AmountAvailable
}
