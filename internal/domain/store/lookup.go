package store

import (
	"context"

	paymentVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
)

// CredentialLookup returns a store's validated gateway configuration.
// Implementations must parse credentials fresh per request (or cache keyed
// by store, never by gateway type alone) so that configurations of
// different tenants can never bleed into each other.
type CredentialLookup interface {
	GatewayConfig(ctx context.Context, storeID uint, gateway paymentVO.Gateway) (*GatewayConfig, error)
}

// InfoProvider exposes the store attributes the payment core needs for
// notifications. Owned by the storefront; read-only here.
type InfoProvider interface {
	MerchantContact(ctx context.Context, storeID uint) (name, email string, err error)
}
