package service

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"vendingmachine/internal/model"
)

// PurchaseEvent is published on the purchase topic after a buy commits.
type PurchaseEvent struct {
	OrderNo      string `json:"order_no"`
	RequestID    string `json:"request_id"`
	UserID       int64  `json:"user_id"`
	ProductID    int64  `json:"product_id"`
	SellerID     int64  `json:"seller_id"`
	Quantity     int64  `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	TotalSpent   int64  `json:"total_spent"`
	BalanceAfter int64  `json:"balance_after"`
	StockAfter   int64  `json:"stock_after"`
	OccurredAt   string `json:"occurred_at"`
}

// AccountEvent is published on the account topic for deposits and resets.
type AccountEvent struct {
	TransactionNo string `json:"transaction_no"`
	UserID        int64  `json:"user_id"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
	OccurredAt    string `json:"occurred_at"`
}

func newOutboxMessage(topic, eventType, key string, payload interface{}) (*model.OutboxMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s event", eventType)
	}
	return &model.OutboxMessage{
		MessageKey: key,
		EventType:  eventType,
		Topic:      topic,
		Payload:    string(data),
		Status:     model.OutboxStatusPending,
	}, nil
}

func occurredAt() string {
	return time.Now().UTC().Format(time.RFC3339)
}
