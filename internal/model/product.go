package model

import (
	"time"
)

// Product is an item listed by a seller. Price is in cents.
type Product struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"product_name"`
	Price           int64     `gorm:"not null" json:"cost"`
	AmountAvailable int64     `gorm:"not null;default:0" json:"amount_available"`
	SellerID        int64     `gorm:"index;not null" json:"seller_id"`
	Version         int       `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
