package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	ordervo "github.com/FlexpointLLC/sellium-sub001/internal/domain/order/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/payment"
	paymentvo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	sharedvo "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/migration"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/persistence/models"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(migration.AutoMigrateModels()...))

	return db
}

func seedOrder(t *testing.T, db *gorm.DB) *models.OrderModel {
	t.Helper()

	model := &models.OrderModel{
		StoreID:       7,
		OrderNo:       "ORD-1001",
		Amount:        50000,
		Currency:      "BDT",
		Status:        ordervo.OrderStatusPending.String(),
		PaymentStatus: ordervo.PaymentStatusPending.String(),
	}
	require.NoError(t, db.Create(model).Error)
	return model
}

func TestOrderRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, db)

	ord, err := repo.GetByOrderNo(ctx, 7, "ORD-1001")
	require.NoError(t, err)
	require.NotNil(t, ord)
	assert.Equal(t, int64(50000), ord.Total().AmountInPoisha())
	assert.Equal(t, ordervo.PaymentStatusPending, ord.PaymentStatus())

	require.NoError(t, ord.MarkPaid(ordervo.PaymentDetails{
		Method:            "bkash",
		TransactionID:     "T1",
		ProviderPaymentID: "P1",
		Amount:            50000,
	}))
	require.NoError(t, repo.Update(ctx, ord))

	reloaded, err := repo.GetByID(ctx, ord.ID())
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, ordervo.PaymentStatusPaid, reloaded.PaymentStatus())
	assert.Equal(t, ordervo.OrderStatusProcessing, reloaded.Status())
	require.NotNil(t, reloaded.PaymentDetails())
	assert.Equal(t, "T1", reloaded.PaymentDetails().TransactionID)
	assert.Equal(t, "P1", reloaded.PaymentDetails().ProviderPaymentID)
	assert.Equal(t, int64(50000), reloaded.PaymentDetails().Amount)
	assert.False(t, reloaded.PaymentDetails().PaidAt.IsZero())
}

func TestOrderRepository_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	ord, err := repo.GetByOrderNo(ctx, 7, "ORD-NOPE")
	require.NoError(t, err)
	assert.Nil(t, ord)

	ord, err = repo.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, ord)
}

func TestOrderRepository_ScopesByStore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, db)

	ord, err := repo.GetByOrderNo(ctx, 8, "ORD-1001")
	require.NoError(t, err)
	assert.Nil(t, ord)
}

func TestOrderRepository_ConcurrentUpdateConflicts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, db)

	first, err := repo.GetByOrderNo(ctx, 7, "ORD-1001")
	require.NoError(t, err)
	second, err := repo.GetByOrderNo(ctx, 7, "ORD-1001")
	require.NoError(t, err)

	require.NoError(t, first.MarkPaymentFailed("declined", false))
	require.NoError(t, repo.Update(ctx, first))

	// The second copy still carries the old version and must lose.
	require.NoError(t, second.MarkPaymentFailed("timeout", false))
	err = repo.Update(ctx, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modified concurrently")
}

func TestPaymentSessionRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentSessionRepository(db)
	ctx := context.Background()

	sess, err := payment.NewSession(1, 7, paymentvo.GatewayBkash, sharedvo.NewMoney(50000, "BDT"))
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, sess))
	assert.NotZero(t, sess.ID())

	require.NoError(t, sess.AttachProviderSession("P1", "https://pay/P1"))
	require.NoError(t, repo.Update(ctx, sess))

	found, err := repo.GetByProviderSessionID(ctx, "P1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, sess.ID(), found.ID())
	assert.Equal(t, paymentvo.SessionStatusInitialized, found.Status())
	require.NotNil(t, found.RedirectURL())
	assert.Equal(t, "https://pay/P1", *found.RedirectURL())

	require.NoError(t, found.MarkSettled("T1"))
	require.NoError(t, repo.Update(ctx, found))

	settled, err := repo.GetSettledByOrderID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.Equal(t, paymentvo.SessionStatusSettled, settled.Status())
	require.NotNil(t, settled.TransactionID())
	assert.Equal(t, "T1", *settled.TransactionID())
	assert.NotNil(t, settled.SettledAt())
}

func TestPaymentSessionRepository_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentSessionRepository(db)
	ctx := context.Background()

	sess, err := repo.GetByProviderSessionID(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, sess)

	sess, err = repo.GetSettledByOrderID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestStoreRepository_GatewayConfig(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStoreRepository(db)
	ctx := context.Background()

	settings := `{"bkash": {"enabled": true, "base_url": "https://tokenized.sandbox.bka.sh/v1.2.0-beta", "username": "u", "password": "p", "app_key": "k", "app_secret": "s"}}`
	require.NoError(t, db.Create(&models.StoreModel{
		Name:            "Demo Store",
		OwnerName:       "Rahim",
		OwnerEmail:      "rahim@example.com",
		PaymentSettings: datatypes.JSON(settings),
	}).Error)
	require.NoError(t, db.Create(&models.StoreModel{
		Name: "Bare Store",
	}).Error)

	t.Run("resolves credentials", func(t *testing.T) {
		cfg, err := repo.GatewayConfig(ctx, 1, paymentvo.GatewayBkash)
		require.NoError(t, err)
		require.NotNil(t, cfg.Bkash)
		assert.Equal(t, "k", cfg.Bkash.AppKey)
	})

	t.Run("gateway not configured", func(t *testing.T) {
		_, err := repo.GatewayConfig(ctx, 1, paymentvo.GatewayNagad)
		require.Error(t, err)
		assert.True(t, apperrors.IsConfigurationError(err))
	})

	t.Run("store without settings", func(t *testing.T) {
		_, err := repo.GatewayConfig(ctx, 2, paymentvo.GatewayBkash)
		require.Error(t, err)
		assert.True(t, apperrors.IsConfigurationError(err))
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := repo.GatewayConfig(ctx, 99, paymentvo.GatewayBkash)
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFoundError(err))
	})

	t.Run("merchant contact", func(t *testing.T) {
		name, email, err := repo.MerchantContact(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Rahim", name)
		assert.Equal(t, "rahim@example.com", email)
	})
}
