package payment

import "context"

// SessionRepository persists payment sessions. Sessions are only ever
// created and updated by the payment core; retention cleanup is external.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	Update(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uint) (*Session, error)
	GetByProviderSessionID(ctx context.Context, providerSessionID string) (*Session, error)
	// GetSettledByOrderID returns the settled session for an order, or nil
	// when none exists. At most one settled session may exist per order.
	GetSettledByOrderID(ctx context.Context, orderID uint) (*Session, error)
}
