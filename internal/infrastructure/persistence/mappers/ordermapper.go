package mappers

import (
	"fmt"
	"time"

	"github.com/FlexpointLLC/sellium-sub001/internal/domain/order"
	vo "github.com/FlexpointLLC/sellium-sub001/internal/domain/order/valueobjects"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/persistence/models"
)

func OrderToModel(o *order.Order) *models.OrderModel {
	model := &models.OrderModel{
		ID:            o.ID(),
		StoreID:       o.StoreID(),
		OrderNo:       o.OrderNo(),
		Amount:        o.Total().AmountInPoisha(),
		Currency:      o.Total().Currency(),
		Status:        o.Status().String(),
		PaymentStatus: o.PaymentStatus().String(),
		FailureReason: o.FailureReason(),
		Version:       o.Version(),
		CreatedAt:     o.CreatedAt(),
		UpdatedAt:     o.UpdatedAt(),
	}

	if d := o.PaymentDetails(); d != nil {
		model.PaymentDetails = models.JSONB{
			"method":              d.Method,
			"transaction_id":      d.TransactionID,
			"provider_payment_id": d.ProviderPaymentID,
			"amount":              d.Amount,
			"paid_at":             d.PaidAt.Format(time.RFC3339),
		}
	}

	return model
}

func OrderToDomain(model *models.OrderModel) (*order.Order, error) {
	status := vo.OrderStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid order status: %s", model.Status)
	}

	paymentStatus := vo.PaymentStatus(model.PaymentStatus)
	if !paymentStatus.IsValid() {
		return nil, fmt.Errorf("invalid payment status: %s", model.PaymentStatus)
	}

	details, err := paymentDetailsFromJSON(model.PaymentDetails)
	if err != nil {
		return nil, err
	}

	return order.ReconstructOrder(order.OrderReconstructParams{
		ID:             model.ID,
		StoreID:        model.StoreID,
		OrderNo:        model.OrderNo,
		Total:          sharedVO.NewMoney(model.Amount, model.Currency),
		Status:         status,
		PaymentStatus:  paymentStatus,
		PaymentDetails: details,
		FailureReason:  model.FailureReason,
		Version:        model.Version,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}), nil
}

func paymentDetailsFromJSON(raw models.JSONB) (*vo.PaymentDetails, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	details := &vo.PaymentDetails{}
	if v, ok := raw["method"].(string); ok {
		details.Method = v
	}
	if v, ok := raw["transaction_id"].(string); ok {
		details.TransactionID = v
	}
	if v, ok := raw["provider_payment_id"].(string); ok {
		details.ProviderPaymentID = v
	}
	switch v := raw["amount"].(type) {
	case float64:
		details.Amount = int64(v)
	case int64:
		details.Amount = v
	}
	if v, ok := raw["paid_at"].(string); ok {
		paidAt, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid paid_at in payment details: %w", err)
		}
		details.PaidAt = paidAt
	}

	return details, nil
}
