package migration

import (
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.StoreModel{},
		&models.OrderModel{},
		&models.PaymentSessionModel{},
	}
}
