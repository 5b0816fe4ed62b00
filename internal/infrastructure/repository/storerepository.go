package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	paymentvo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/store"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/persistence/models"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/db"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
)

// StoreRepository reads store records and exposes the credential and
// contact lookups the payment core depends on. Credentials live in the
// store's payment_settings JSON document and are parsed on every lookup;
// they are never cached so a merchant credential rotation takes effect
// immediately.
type StoreRepository struct {
	db *gorm.DB
}

var (
	_ store.CredentialLookup = (*StoreRepository)(nil)
	_ store.InfoProvider     = (*StoreRepository)(nil)
)

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) GatewayConfig(ctx context.Context, storeID uint, gateway paymentvo.Gateway) (*store.GatewayConfig, error) {
	model, err := r.getByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, apperrors.NewNotFoundError("store not found")
	}

	if len(model.PaymentSettings) == 0 {
		return nil, apperrors.NewConfigurationError("store has no payment settings")
	}

	return store.ParsePaymentSettings(storeID, model.PaymentSettings, gateway)
}

func (r *StoreRepository) MerchantContact(ctx context.Context, storeID uint) (string, string, error) {
	model, err := r.getByID(ctx, storeID)
	if err != nil {
		return "", "", err
	}
	if model == nil {
		return "", "", apperrors.NewNotFoundError("store not found")
	}

	return model.OwnerName, model.OwnerEmail, nil
}

func (r *StoreRepository) getByID(ctx context.Context, id uint) (*models.StoreModel, error) {
	var model models.StoreModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	return &model, nil
}
