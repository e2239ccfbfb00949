package model

import (
	"time"
)

// ============================================================================
// Balance movement types
// ============================================================================

const (
	TransactionTypeDeposit  = "DEPOSIT"
	TransactionTypePurchase = "PURCHASE"
	TransactionTypeReset    = "RESET"
)

// AccountTransaction is one balance movement of a buyer.
//
// Rows are append only. BalanceBefore/BalanceAfter let a reconciliation job
// replay an account from zero.
type AccountTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	OrderNo       string    `gorm:"type:varchar(64);index" json:"order_no,omitempty"` // set for purchases
	Amount        int64     `gorm:"not null" json:"amount"`                           // signed: deposits positive, debits negative
	Type          string    `gorm:"type:varchar(20);not null" json:"type"`
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`
	Remark        string    `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AccountTransaction) TableName() string {
	return "account_transaction"
}
