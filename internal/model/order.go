package model

import (
	"time"
)

const (
	OrderStatusPaid = "PAID"
)

// PurchaseOrder records a completed purchase. RequestID is supplied by the
// client (or generated) and makes a buy call safe to retry.
type PurchaseOrder struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	RequestID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_id"`
	UserID       int64     `gorm:"index;not null" json:"user_id"`
	ProductID    int64     `gorm:"index;not null" json:"product_id"`
	ProductName  string    `gorm:"type:varchar(100);not null" json:"product_name"`
	Quantity     int64     `gorm:"not null" json:"quantity"`
	UnitPrice    int64     `gorm:"not null" json:"unit_price"`
	TotalSpent   int64     `gorm:"not null" json:"total_spent"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	Status       string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_order"
}
