package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type OrderModel struct {
	ID             uint   `gorm:"primaryKey"`
	StoreID        uint   `gorm:"index:idx_store_order_no,unique;not null"`
	OrderNo        string `gorm:"index:idx_store_order_no,unique;size:64;not null"`
	Amount         int64  `gorm:"not null"`
	Currency       string `gorm:"size:10;not null;default:'BDT'"`
	Status         string `gorm:"size:20;not null;index"`
	PaymentStatus  string `gorm:"size:20;not null;index"`
	PaymentDetails JSONB  `gorm:"type:json"`
	FailureReason  *string `gorm:"type:text"`
	Version        int     `gorm:"default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}
