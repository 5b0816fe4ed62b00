package order

import (
	"fmt"
	"time"

	vo "github.com/FlexpointLLC/sellium-sub001/internal/domain/order/valueobjects"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/biztime"
)

// Order is the ledger entry the payment core reads to validate amounts and
// writes to record settlement outcome. Orders are created by the storefront
// checkout before any payment attempt; the payment core never creates or
// deletes them.
type Order struct {
	id      uint
	storeID uint
	orderNo string
	total   sharedVO.Money

	status        vo.OrderStatus
	paymentStatus vo.PaymentStatus

	paymentDetails *vo.PaymentDetails
	failureReason  *string

	version   int
	createdAt time.Time
	updatedAt time.Time
}

func (o *Order) ID() uint {
	return o.id
}

func (o *Order) StoreID() uint {
	return o.storeID
}

func (o *Order) OrderNo() string {
	return o.orderNo
}

func (o *Order) Total() sharedVO.Money {
	return o.total
}

func (o *Order) Status() vo.OrderStatus {
	return o.status
}

func (o *Order) PaymentStatus() vo.PaymentStatus {
	return o.paymentStatus
}

func (o *Order) PaymentDetails() *vo.PaymentDetails {
	return o.paymentDetails
}

func (o *Order) FailureReason() *string {
	return o.failureReason
}

func (o *Order) Version() int {
	return o.version
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// MarkPaymentPending records that a gateway session was opened for this order.
func (o *Order) MarkPaymentPending() error {
	if o.paymentStatus == vo.PaymentStatusPaid {
		return fmt.Errorf("cannot reopen payment for a paid order")
	}

	o.paymentStatus = vo.PaymentStatusPending
	o.updatedAt = biztime.NowUTC()
	o.version++

	return nil
}

// MarkPaid transitions the order to paid with its settlement record.
// Calling it on an already-paid order is a no-op so that replayed
// callbacks do not re-apply side effects.
func (o *Order) MarkPaid(details vo.PaymentDetails) error {
	if o.paymentStatus == vo.PaymentStatusPaid {
		return nil
	}

	if details.TransactionID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if details.Amount != o.total.AmountInPoisha() {
		return fmt.Errorf("settled amount %d does not match order total %d",
			details.Amount, o.total.AmountInPoisha())
	}

	now := biztime.NowUTC()
	if details.PaidAt.IsZero() {
		details.PaidAt = now
	}

	o.paymentStatus = vo.PaymentStatusPaid
	o.paymentDetails = &details
	o.failureReason = nil
	if o.status == vo.OrderStatusPending {
		o.status = vo.OrderStatusProcessing
	}
	o.updatedAt = now
	o.version++

	return nil
}

// MarkPaymentFailed records a failed settlement attempt. The fulfillment
// status is left for the merchant to handle unless cancel is requested
// (explicit customer abort at the provider).
func (o *Order) MarkPaymentFailed(reason string, cancel bool) error {
	if o.paymentStatus == vo.PaymentStatusPaid {
		return fmt.Errorf("cannot fail a paid order")
	}

	o.paymentStatus = vo.PaymentStatusFailed
	o.failureReason = &reason
	if cancel {
		o.status = vo.OrderStatusCancelled
	}
	o.updatedAt = biztime.NowUTC()
	o.version++

	return nil
}

// ValidateSettledAmount compares a provider-reported amount (in poisha)
// against the order's charged total. Provider amounts are untrusted input;
// the comparison is exact.
func (o *Order) ValidateSettledAmount(amountInPoisha int64) error {
	if amountInPoisha != o.total.AmountInPoisha() {
		return fmt.Errorf("amount mismatch: expected %d, got %d",
			o.total.AmountInPoisha(), amountInPoisha)
	}
	return nil
}

// SetID sets the order ID after persistence (used by repository after Create)
func (o *Order) SetID(id uint) {
	o.id = id
}

// OrderReconstructParams carries persisted state for rebuilding an Order.
type OrderReconstructParams struct {
	ID             uint
	StoreID        uint
	OrderNo        string
	Total          sharedVO.Money
	Status         vo.OrderStatus
	PaymentStatus  vo.PaymentStatus
	PaymentDetails *vo.PaymentDetails
	FailureReason  *string
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ReconstructOrder(p OrderReconstructParams) *Order {
	return &Order{
		id:             p.ID,
		storeID:        p.StoreID,
		orderNo:        p.OrderNo,
		total:          p.Total,
		status:         p.Status,
		paymentStatus:  p.PaymentStatus,
		paymentDetails: p.PaymentDetails,
		failureReason:  p.FailureReason,
		version:        p.Version,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}
}
