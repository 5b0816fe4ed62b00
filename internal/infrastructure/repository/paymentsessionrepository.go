package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/FlexpointLLC/sellium-sub001/internal/domain/payment"
	vo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/persistence/mappers"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/persistence/models"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/db"
)

type PaymentSessionRepository struct {
	db *gorm.DB
}

func NewPaymentSessionRepository(db *gorm.DB) *PaymentSessionRepository {
	return &PaymentSessionRepository{db: db}
}

func (r *PaymentSessionRepository) Create(ctx context.Context, s *payment.Session) error {
	model := mappers.SessionToModel(s)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create payment session: %w", err)
	}

	s.SetID(model.ID)

	return nil
}

func (r *PaymentSessionRepository) Update(ctx context.Context, s *payment.Session) error {
	model := mappers.SessionToModel(s)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentSessionModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":              model.Status,
			"provider_session_id": model.ProviderSessionID,
			"redirect_url":        model.RedirectURL,
			"transaction_id":      model.TransactionID,
			"failure_reason":      model.FailureReason,
			"settled_at":          model.SettledAt,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update payment session: %w", result.Error)
	}

	return nil
}

func (r *PaymentSessionRepository) GetByID(ctx context.Context, id uint) (*payment.Session, error) {
	var model models.PaymentSessionModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment session: %w", err)
	}

	return mappers.SessionToDomain(&model)
}

func (r *PaymentSessionRepository) GetByProviderSessionID(ctx context.Context, providerSessionID string) (*payment.Session, error) {
	var model models.PaymentSessionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("provider_session_id = ?", providerSessionID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment session by provider session id: %w", err)
	}

	return mappers.SessionToDomain(&model)
}

func (r *PaymentSessionRepository) GetSettledByOrderID(ctx context.Context, orderID uint) (*payment.Session, error) {
	var model models.PaymentSessionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("order_id = ? AND status = ?", orderID, vo.SessionStatusSettled.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settled session by order id: %w", err)
	}

	return mappers.SessionToDomain(&model)
}
