package mappers

import (
	"fmt"

	"github.com/FlexpointLLC/sellium-sub001/internal/domain/payment"
	vo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/persistence/models"
)

func SessionToModel(s *payment.Session) *models.PaymentSessionModel {
	return &models.PaymentSessionModel{
		ID:                s.ID(),
		OrderID:           s.OrderID(),
		StoreID:           s.StoreID(),
		Gateway:           s.Gateway().String(),
		Amount:            s.Amount().AmountInPoisha(),
		Currency:          s.Amount().Currency(),
		Status:            s.Status().String(),
		ProviderSessionID: s.ProviderSessionID(),
		RedirectURL:       s.RedirectURL(),
		TransactionID:     s.TransactionID(),
		FailureReason:     s.FailureReason(),
		SettledAt:         s.SettledAt(),
		CreatedAt:         s.CreatedAt(),
		UpdatedAt:         s.UpdatedAt(),
	}
}

func SessionToDomain(model *models.PaymentSessionModel) (*payment.Session, error) {
	gateway, err := vo.NewGateway(model.Gateway)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway: %w", err)
	}

	status := vo.SessionStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid session status: %s", model.Status)
	}

	return payment.ReconstructSession(payment.SessionReconstructParams{
		ID:                model.ID,
		OrderID:           model.OrderID,
		StoreID:           model.StoreID,
		Gateway:           gateway,
		Amount:            sharedVO.NewMoney(model.Amount, model.Currency),
		Status:            status,
		ProviderSessionID: model.ProviderSessionID,
		RedirectURL:       model.RedirectURL,
		TransactionID:     model.TransactionID,
		FailureReason:     model.FailureReason,
		SettledAt:         model.SettledAt,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}), nil
}
