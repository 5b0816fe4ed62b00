package usecases

import (
	"context"
	"fmt"
	"net/url"

	"github.com/FlexpointLLC/sellium-sub001/internal/application/checkout/gateway"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/order"
	ordervo "github.com/FlexpointLLC/sellium-sub001/internal/domain/order/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/payment"
	paymentvo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/store"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/logger"
)

// CreatePaymentCommand opens a payment session for an existing order.
type CreatePaymentCommand struct {
	StoreID uint
	OrderNo string
	Gateway string
}

type CreatePaymentResult struct {
	SessionID         uint
	ProviderSessionID string
	RedirectURL       string
}

// CreatePaymentUseCase validates the order, resolves the store's gateway
// credentials and opens a session at the provider. The customer is then
// redirected to the provider-hosted checkout page.
type CreatePaymentUseCase struct {
	orders          order.Repository
	sessions        payment.SessionRepository
	credentials     store.CredentialLookup
	registry        *gateway.Registry
	callbackBaseURL string
	logger          logger.Interface
}

func NewCreatePaymentUseCase(
	orders order.Repository,
	sessions payment.SessionRepository,
	credentials store.CredentialLookup,
	registry *gateway.Registry,
	callbackBaseURL string,
	log logger.Interface,
) *CreatePaymentUseCase {
	return &CreatePaymentUseCase{
		orders:          orders,
		sessions:        sessions,
		credentials:     credentials,
		registry:        registry,
		callbackBaseURL: callbackBaseURL,
		logger:          log,
	}
}

func (uc *CreatePaymentUseCase) Execute(ctx context.Context, cmd CreatePaymentCommand) (*CreatePaymentResult, error) {
	gw, err := paymentvo.NewGateway(cmd.Gateway)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	ord, err := uc.orders.GetByOrderNo(ctx, cmd.StoreID, cmd.OrderNo)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperrors.NewNotFoundError("order not found")
	}
	if ord.PaymentStatus() == ordervo.PaymentStatusPaid {
		return nil, apperrors.NewConflictError("order is already paid")
	}

	cfg, err := uc.credentials.GatewayConfig(ctx, cmd.StoreID, gw)
	if err != nil {
		return nil, err
	}

	adapter, err := uc.registry.Resolve(gw)
	if err != nil {
		return nil, err
	}

	session, err := payment.NewSession(ord.ID(), cmd.StoreID, gw, ord.Total())
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	created, err := adapter.CreatePayment(ctx, cfg, gateway.CreatePaymentRequest{
		OrderNo:     ord.OrderNo(),
		Amount:      ord.Total(),
		CallbackURL: uc.callbackURL(cmd.StoreID, gw),
	})
	if err != nil {
		uc.logger.Warnw("gateway session creation failed",
			"store_id", cmd.StoreID,
			"order_no", cmd.OrderNo,
			"gateway", gw.String(),
			"error", err)
		if ferr := session.MarkFailed(err.Error()); ferr == nil {
			if uerr := uc.sessions.Update(ctx, session); uerr != nil {
				uc.logger.Errorw("failed to persist failed session",
					"session_id", session.ID(), "error", uerr)
			}
		}
		return nil, err
	}

	if err := session.AttachProviderSession(created.ProviderSessionID, created.RedirectURL); err != nil {
		return nil, apperrors.NewInternalError(err.Error())
	}
	if err := uc.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	if err := ord.MarkPaymentPending(); err != nil {
		return nil, apperrors.NewConflictError(err.Error())
	}
	if err := uc.orders.Update(ctx, ord); err != nil {
		return nil, err
	}

	uc.logger.Infow("payment session opened",
		"store_id", cmd.StoreID,
		"order_no", cmd.OrderNo,
		"gateway", gw.String(),
		"session_id", session.ID(),
		"provider_session_id", created.ProviderSessionID)

	return &CreatePaymentResult{
		SessionID:         session.ID(),
		ProviderSessionID: created.ProviderSessionID,
		RedirectURL:       created.RedirectURL,
	}, nil
}

// callbackURL is where the provider sends the customer back after the
// hosted checkout. Store and gateway ride along as query parameters so
// the callback handler can route the settlement without provider-specific
// URL shapes.
func (uc *CreatePaymentUseCase) callbackURL(storeID uint, gw paymentvo.Gateway) string {
	q := url.Values{}
	q.Set("store_id", fmt.Sprintf("%d", storeID))
	q.Set("gateway", gw.String())
	return uc.callbackBaseURL + "/checkout/payments/callback?" + q.Encode()
}
