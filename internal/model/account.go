package model

import (
	"time"
)

// Role is the marketplace role of an account.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// Account is a marketplace user. Balance is the deposited coin value in
// cents and only ever moves for buyers.
type Account struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(128);not null" json:"-"`
	Role         Role      `gorm:"type:varchar(16);not null;default:buyer" json:"role"`
	Balance      int64     `gorm:"not null;default:0" json:"deposit"`
	Version      int       `gorm:"not null;default:0" json:"-"` // optimistic lock
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
