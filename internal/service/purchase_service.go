package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
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

type PurchaseService struct {
	store  repository.Store
	locker lock.Locker
	topic  string
}

func NewPurchaseService(store repository.Store, locker lock.Locker, cfg *config.Config) *PurchaseService {
	return &PurchaseService{
		store:  store,
		locker: locker,
		topic:  cfg.Kafka.Topic.Purchase,
	}
}

type BuyRequest struct {
	ProductID int64  `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
	RequestID string `json:"request_id"` // optional, makes the call safe to retry
}

type BuyResponse struct {
	ledger.Receipt
	OrderNo string `json:"order_no"`
	Replay  bool   `json:"replay,omitempty"`
}

func replayResponse(order *model.PurchaseOrder) *BuyResponse {
	return &BuyResponse{
		Receipt: ledger.NewReceipt(order.TotalSpent, order.Quantity, order.ProductName, order.BalanceAfter),
		OrderNo: order.OrderNo,
		Replay:  true,
	}
}

// findReplay returns the stored order for requestID. An order placed by a
// different user under the same id is a conflict, not a replay.
func (s *PurchaseService) findReplay(ctx context.Context, userID int64, requestID string) (*BuyResponse, error) {
	order, err := s.store.Orders().GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, errors.Wrap(err, "query order")
	}
	if order == nil {
		return nil, nil
	}
	if order.UserID != userID {
		return nil, errors.Wrapf(repository.ErrDuplicateRecord, "request_id %s", requestID)
	}
	return replayResponse(order), nil
}

// Buy runs one purchase for the calling buyer.
//
// The account and the product are locked in a fixed order, then read,
// checked, debited and saved inside a single transaction together with the
// balance ledger row, the purchase order and the outbox event. A request id
// seen before returns the stored receipt without touching any balance.
func (s *PurchaseService) Buy(ctx context.Context, p auth.Principal, req *BuyRequest) (*BuyResponse, error) {
	if p.Role != model.RoleBuyer {
		return nil, errors.WithMessage(ledger.ErrRoleViolation, `only users with a "buyer" role can buy products`)
	}
	if req.Quantity <= 0 {
		return nil, errors.Wrapf(ledger.ErrInvalidQuantity, "got %d", req.Quantity)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	} else {
		replay, err := s.findReplay(ctx, p.UserID, requestID)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	var resp *BuyResponse
	err := withLocks(ctx, s.locker, func() error {
		// checked again under the lock, a concurrent retry may have won
		replay, err := s.findReplay(ctx, p.UserID, requestID)
		if err != nil {
			return err
		}
		if replay != nil {
			resp = replay
			return nil
		}

		return s.store.Transaction(ctx, func(tx repository.Store) error {
			buyer, err := tx.Accounts().GetByIDForUpdate(ctx, p.UserID)
			if err != nil {
				return err
			}
			product, err := tx.Products().GetByIDForUpdate(ctx, req.ProductID)
			if err != nil {
				return err
			}

			result, err := ledger.Purchase(*buyer, *product, req.Quantity)
			if err != nil {
				return err
			}

			if err := tx.Accounts().Save(ctx, &result.Buyer); err != nil {
				return err
			}
			if err := tx.Products().Save(ctx, &result.Product); err != nil {
				return err
			}

			orderNo := idgen.GenerateOrderNo()
			trans := &model.AccountTransaction{
				TransactionNo: idgen.GenerateTransactionNo(),
				UserID:        buyer.ID,
				OrderNo:       orderNo,
				Amount:        -result.Receipt.TotalSpent,
				Type:          model.TransactionTypePurchase,
				BalanceBefore: buyer.Balance,
				BalanceAfter:  result.Buyer.Balance,
				Remark:        fmt.Sprintf("purchase-%d-%s", product.ID, result.Receipt.ProductsPurchased),
			}
			if err := tx.Transactions().Create(ctx, trans); err != nil {
				return errors.Wrap(err, "record transaction")
			}

			order := &model.PurchaseOrder{
				OrderNo:      orderNo,
				RequestID:    requestID,
				UserID:       buyer.ID,
				ProductID:    product.ID,
				ProductName:  product.Name,
				Quantity:     req.Quantity,
				UnitPrice:    product.Price,
				TotalSpent:   result.Receipt.TotalSpent,
				BalanceAfter: result.Buyer.Balance,
				Status:       model.OrderStatusPaid,
			}
			if err := tx.Orders().Create(ctx, order); err != nil {
				return errors.Wrap(err, "create order")
			}

			msg, err := newOutboxMessage(s.topic, model.EventPurchaseCompleted, orderNo, PurchaseEvent{
				OrderNo:      orderNo,
				RequestID:    requestID,
				UserID:       buyer.ID,
				ProductID:    product.ID,
				SellerID:     product.SellerID,
				Quantity:     req.Quantity,
				UnitPrice:    product.Price,
				TotalSpent:   result.Receipt.TotalSpent,
				BalanceAfter: result.Buyer.Balance,
				StockAfter:   result.Product.AmountAvailable,
				OccurredAt:   occurredAt(),
			})
			if err != nil {
				return err
			}
			if err := tx.Outbox().Create(ctx, msg); err != nil {
				return errors.Wrap(err, "write outbox message")
			}

			resp = &BuyResponse{Receipt: result.Receipt, OrderNo: orderNo}
			return nil
		})
	}, lock.AccountKey(p.UserID), lock.ProductKey(req.ProductID))
	if err != nil {
		return nil, err
	}

	if !resp.Replay {
		zap.S().Infof("[Purchase] completed: orderNo=%s, userID=%d, productID=%d, quantity=%d, total=%d",
			resp.OrderNo, p.UserID, req.ProductID, req.Quantity, resp.TotalSpent)
	}
	return resp, nil
}
