// Package gateway defines the contract checkout use cases hold against
// the mobile-money providers. Adapters convert every provider failure to
// the shared gateway error taxonomy before it crosses this boundary, and
// report amounts in the smallest currency unit (poisha).
package gateway

import (
	"context"

	paymentVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/store"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
)

// CreatePaymentRequest opens a provider-hosted payment session for an order.
type CreatePaymentRequest struct {
	OrderNo     string
	Amount      sharedVO.Money
	CallbackURL string
}

type CreatePaymentResponse struct {
	// ProviderSessionID is the gateway's handle: bKash paymentID or
	// Nagad paymentReferenceId.
	ProviderSessionID string
	// RedirectURL is the provider-hosted page the customer completes
	// payment on.
	RedirectURL string
}

// ConfirmResult is the normalized outcome of executing (bKash) or
// verifying (Nagad) a payment after the customer returns.
type ConfirmResult struct {
	TransactionID     string
	ProviderSessionID string
	// AmountInPoisha is the provider-reported settled amount. Untrusted;
	// the reconciler re-validates it against the order total.
	AmountInPoisha int64
	OrderNo        string
}

// CheckoutGateway is implemented once per provider. Clients are stateless;
// the per-store credential bundle travels with every call.
type CheckoutGateway interface {
	CreatePayment(ctx context.Context, cfg *store.GatewayConfig, req CreatePaymentRequest) (*CreatePaymentResponse, error)
	ConfirmPayment(ctx context.Context, cfg *store.GatewayConfig, providerSessionID string) (*ConfirmResult, error)
}

// Registry resolves the adapter for a gateway.
type Registry struct {
	adapters map[paymentVO.Gateway]CheckoutGateway
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[paymentVO.Gateway]CheckoutGateway),
	}
}

func (r *Registry) Register(gw paymentVO.Gateway, adapter CheckoutGateway) {
	r.adapters[gw] = adapter
}

func (r *Registry) Resolve(gw paymentVO.Gateway) (CheckoutGateway, error) {
	adapter, ok := r.adapters[gw]
	if !ok {
		return nil, apperrors.NewConfigurationError("no adapter registered for gateway", gw.String())
	}
	return adapter, nil
}
