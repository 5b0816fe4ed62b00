package models

import (
	"time"

	"gorm.io/datatypes"
)

// StoreModel carries the slice of the stores table the payment core
// reads: identity, owner contact and the per-store payment_settings
// JSON document holding gateway credentials.
type StoreModel struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:255;not null"`
	OwnerName       string `gorm:"size:255"`
	OwnerEmail      string `gorm:"size:255"`
	PaymentSettings datatypes.JSON
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (StoreModel) TableName() string {
	return "stores"
}
