package order

import "context"

// Repository is the order-ledger surface consumed by the payment core.
type Repository interface {
	GetByID(ctx context.Context, id uint) (*Order, error)
	GetByOrderNo(ctx context.Context, storeID uint, orderNo string) (*Order, error)
	Update(ctx context.Context, o *Order) error
}
