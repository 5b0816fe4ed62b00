package models

import (
	"time"
)

type PaymentSessionModel struct {
	ID                uint    `gorm:"primaryKey"`
	OrderID           uint    `gorm:"index;not null"`
	StoreID           uint    `gorm:"index;not null"`
	Gateway           string  `gorm:"size:20;not null"`
	Amount            int64   `gorm:"not null"`
	Currency          string  `gorm:"size:10;not null;default:'BDT'"`
	Status            string  `gorm:"size:20;not null;index"`
	ProviderSessionID *string `gorm:"size:128;uniqueIndex"`
	RedirectURL       *string `gorm:"type:text"`
	TransactionID     *string `gorm:"size:128"`
	FailureReason     *string `gorm:"type:text"`
	SettledAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (PaymentSessionModel) TableName() string {
	return "payment_sessions"
}
