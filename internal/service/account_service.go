package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendingmachine/internal/auth"
	"vendingmachine/internal/config"
	"vendingmachine/internal/infrastructure/lock"
	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
	"vendingmachine/internal/repository"
	"vendingmachine/pkg/idgen"
)

type AccountService struct {
	store    repository.Store
	locker   lock.Locker
	tokens   *auth.TokenManager
	denylist auth.Denylist
	topic    string
}

func NewAccountService(store repository.Store, locker lock.Locker, tokens *auth.TokenManager,
	denylist auth.Denylist, cfg *config.Config) *AccountService {
	return &AccountService{
		store:    store,
		locker:   locker,
		tokens:   tokens,
		denylist: denylist,
		topic:    cfg.Kafka.Topic.Account,
	}
}

type RegisterRequest struct {
	Username string     `json:"username" binding:"required"`
	Password string     `json:"password" binding:"required"`
	Role     model.Role `json:"role" binding:"required"`
}

func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*model.Account, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, errors.WithMessage(ErrInvalidArgument, "username and password are required")
	}
	if !req.Role.Valid() {
		return nil, errors.WithMessagef(ErrInvalidArgument, "unknown role %q", req.Role)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	account := &model.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		return nil, err
	}

	zap.S().Infof("[Account] registered: id=%d, username=%s, role=%s", account.ID, account.Username, account.Role)
	return account, nil
}

// Login checks the credentials and issues an access token.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.store.Accounts().GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Generate(*account)
}

func (s *AccountService) GetAccount(ctx context.Context, p auth.Principal) (*model.Account, error) {
	return s.store.Accounts().GetByID(ctx, p.UserID)
}

// Deposit inserts one coin into the caller's balance.
func (s *AccountService) Deposit(ctx context.Context, p auth.Principal, amount int64) (*model.Account, error) {
	return s.mutateBalance(ctx, p, model.TransactionTypeDeposit, model.EventDepositAccepted, func(a model.Account) (model.Account, error) {
		return ledger.Deposit(a, amount)
	})
}

// ResetDeposit empties the caller's balance.
func (s *AccountService) ResetDeposit(ctx context.Context, p auth.Principal) (*model.Account, error) {
	return s.mutateBalance(ctx, p, model.TransactionTypeReset, model.EventDepositReset, ledger.ResetDeposit)
}

// mutateBalance applies op to the locked account and records the movement
// in the balance ledger and the outbox, all in one transaction.
func (s *AccountService) mutateBalance(ctx context.Context, p auth.Principal, transType, eventType string,
	op func(model.Account) (model.Account, error)) (*model.Account, error) {

	var result *model.Account
	err := withLocks(ctx, s.locker, func() error {
		return s.store.Transaction(ctx, func(tx repository.Store) error {
			account, err := tx.Accounts().GetByIDForUpdate(ctx, p.UserID)
			if err != nil {
				return err
			}

			updated, err := op(*account)
			if err != nil {
				return err
			}
			if err := tx.Accounts().Save(ctx, &updated); err != nil {
				return err
			}

			trans := &model.AccountTransaction{
				TransactionNo: idgen.GenerateTransactionNo(),
				UserID:        account.ID,
				Amount:        updated.Balance - account.Balance,
				Type:          transType,
				BalanceBefore: account.Balance,
				BalanceAfter:  updated.Balance,
				Remark:        strings.ToLower(transType),
			}
			if err := tx.Transactions().Create(ctx, trans); err != nil {
				return errors.Wrap(err, "record transaction")
			}

			msg, err := newOutboxMessage(s.topic, eventType, trans.TransactionNo, AccountEvent{
				TransactionNo: trans.TransactionNo,
				UserID:        account.ID,
				Type:          transType,
				Amount:        trans.Amount,
				BalanceBefore: trans.BalanceBefore,
				BalanceAfter:  trans.BalanceAfter,
				OccurredAt:    occurredAt(),
			})
			if err != nil {
				return err
			}
			if err := tx.Outbox().Create(ctx, msg); err != nil {
				return errors.Wrap(err, "write outbox message")
			}

			result = &updated
			return nil
		})
	}, lock.AccountKey(p.UserID))
	if err != nil {
		return nil, err
	}

	zap.S().Infof("[Account] %s: userID=%d, balance=%d", strings.ToLower(transType), result.ID, result.Balance)
	return result, nil
}

func (s *AccountService) ListTransactions(ctx context.Context, p auth.Principal, page, pageSize int) ([]*model.AccountTransaction, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.store.Transactions().ListByUserID(ctx, p.UserID, page, pageSize)
}

// AccountSummary is the public view of an account. Deposit is only filled
// in for the caller's own account.
type AccountSummary struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Role      model.Role `json:"role"`
	Deposit   *int64     `json:"deposit,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func summarize(a *model.Account) AccountSummary {
	return AccountSummary{ID: a.ID, Username: a.Username, Role: a.Role, CreatedAt: a.CreatedAt}
}

func (s *AccountService) ListAccounts(ctx context.Context, page, pageSize int) ([]AccountSummary, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	accounts, total, err := s.store.Accounts().List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, summarize(a))
	}
	return out, total, nil
}

func (s *AccountService) GetUser(ctx context.Context, p auth.Principal, id int64) (*AccountSummary, error) {
	account, err := s.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := summarize(account)
	if account.ID == p.UserID {
		view.Deposit = &account.Balance
	}
	return &view, nil
}

// UpdateAccountRequest changes login details only. Role and deposit are
// not editable here.
type UpdateAccountRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func requireSelf(p auth.Principal, id int64) error {
	if p.UserID != id {
		return errors.Wrapf(ledger.ErrRoleViolation, "user %d cannot modify user %d", p.UserID, id)
	}
	return nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, p auth.Principal, id int64, req *UpdateAccountRequest) (*model.Account, error) {
	if err := requireSelf(p, id); err != nil {
		return nil, err
	}
	if req.Username == nil && req.Password == nil {
		return nil, errors.WithMessage(ErrInvalidArgument, "nothing to update")
	}

	var username, hash string
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, errors.WithMessage(ErrInvalidArgument, "username must not be empty")
		}
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, errors.WithMessage(ErrInvalidArgument, "password must not be empty")
		}
		var err error
		if hash, err = auth.HashPassword(*req.Password); err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
	}

	var result *model.Account
	err := withLocks(ctx, s.locker, func() error {
		return s.store.Transaction(ctx, func(tx repository.Store) error {
			account, err := tx.Accounts().GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if username != "" {
				account.Username = username
			}
			if hash != "" {
				account.PasswordHash = hash
			}
			if err := tx.Accounts().UpdateProfile(ctx, account); err != nil {
				return err
			}
			result = account
			return nil
		})
	}, lock.AccountKey(id))
	if err != nil {
		return nil, err
	}

	zap.S().Infof("[Account] updated: id=%d, username=%s", result.ID, result.Username)
	return result, nil
}

// DeleteAccount removes the caller's account together with every product
// it listed.
func (s *AccountService) DeleteAccount(ctx context.Context, p auth.Principal, id int64) error {
	if err := requireSelf(p, id); err != nil {
		return err
	}

	var removed int64
	err := withLocks(ctx, s.locker, func() error {
		return s.store.Transaction(ctx, func(tx repository.Store) error {
			var err error
			if removed, err = tx.Products().DeleteBySeller(ctx, id); err != nil {
				return errors.Wrap(err, "delete listed products")
			}
			return tx.Accounts().Delete(ctx, id)
		})
	}, lock.AccountKey(id))
	if err != nil {
		return err
	}

	zap.S().Infof("[Account] deleted: id=%d, products=%d", id, removed)
	return nil
}

// Logout revokes the presented token until it expires.
func (s *AccountService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
