package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/FlexpointLLC/sellium-sub001/internal/domain/order"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/persistence/mappers"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/persistence/models"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/db"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*order.Order, error) {
	var model models.OrderModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return mappers.OrderToDomain(&model)
}

func (r *OrderRepository) GetByOrderNo(ctx context.Context, storeID uint, orderNo string) (*order.Order, error) {
	var model models.OrderModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("store_id = ? AND order_no = ?", storeID, orderNo).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order by order_no: %w", err)
	}

	return mappers.OrderToDomain(&model)
}

// Update persists payment outcome fields with optimistic locking on the
// version column so concurrent settlement attempts cannot clobber a paid
// order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	model := mappers.OrderToModel(o)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"status":          model.Status,
			"payment_status":  model.PaymentStatus,
			"payment_details": model.PaymentDetails,
			"failure_reason":  model.FailureReason,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order %d was modified concurrently", model.ID)
	}

	return nil
}
