package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/FlexpointLLC/sellium-sub001/internal/domain/order/valueobjects"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
)

func testOrder(paymentStatus vo.PaymentStatus) *Order {
	now := time.Now().UTC()
	return ReconstructOrder(OrderReconstructParams{
		ID:            1,
		StoreID:       7,
		OrderNo:       "ORD-1001",
		Total:         sharedVO.NewMoney(50000, "BDT"),
		Status:        vo.OrderStatusPending,
		PaymentStatus: paymentStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func validDetails() vo.PaymentDetails {
	return vo.PaymentDetails{
		Method:            "bkash",
		TransactionID:     "T1",
		ProviderPaymentID: "P1",
		Amount:            50000,
	}
}

func TestMarkPaymentPending(t *testing.T) {
	t.Run("from unpaid", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusUnpaid)
		require.NoError(t, o.MarkPaymentPending())
		assert.Equal(t, vo.PaymentStatusPending, o.PaymentStatus())
	})

	t.Run("retry after failure", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusFailed)
		require.NoError(t, o.MarkPaymentPending())
		assert.Equal(t, vo.PaymentStatusPending, o.PaymentStatus())
	})

	t.Run("paid order cannot reopen", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusPaid)
		assert.Error(t, o.MarkPaymentPending())
	})
}

func TestMarkPaid(t *testing.T) {
	t.Run("records settlement", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusPending)
		require.NoError(t, o.MarkPaid(validDetails()))

		assert.Equal(t, vo.PaymentStatusPaid, o.PaymentStatus())
		assert.Equal(t, vo.OrderStatusProcessing, o.Status())
		require.NotNil(t, o.PaymentDetails())
		assert.Equal(t, "T1", o.PaymentDetails().TransactionID)
		assert.False(t, o.PaymentDetails().PaidAt.IsZero())
	})

	t.Run("idempotent on paid order", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusPending)
		require.NoError(t, o.MarkPaid(validDetails()))
		first := o.PaymentDetails()
		version := o.Version()

		other := validDetails()
		other.TransactionID = "T2"
		require.NoError(t, o.MarkPaid(other))

		// The original settlement record is untouched.
		assert.Equal(t, first, o.PaymentDetails())
		assert.Equal(t, version, o.Version())
	})

	t.Run("requires transaction ID", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusPending)
		d := validDetails()
		d.TransactionID = ""
		assert.Error(t, o.MarkPaid(d))
	})

	t.Run("rejects mismatched amount", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusPending)
		d := validDetails()
		d.Amount = 49999
		assert.Error(t, o.MarkPaid(d))
		assert.Equal(t, vo.PaymentStatusPending, o.PaymentStatus())
	})

	t.Run("clears earlier failure reason", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusPending)
		require.NoError(t, o.MarkPaymentFailed("declined", false))
		require.NoError(t, o.MarkPaymentPending())
		require.NoError(t, o.MarkPaid(validDetails()))
		assert.Nil(t, o.FailureReason())
	})
}

func TestMarkPaymentFailed(t *testing.T) {
	t.Run("records reason", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusPending)
		require.NoError(t, o.MarkPaymentFailed("declined", false))

		assert.Equal(t, vo.PaymentStatusFailed, o.PaymentStatus())
		require.NotNil(t, o.FailureReason())
		assert.Equal(t, "declined", *o.FailureReason())
		assert.Equal(t, vo.OrderStatusPending, o.Status())
	})

	t.Run("cancel also cancels fulfillment", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusPending)
		require.NoError(t, o.MarkPaymentFailed("customer cancelled at gateway", true))
		assert.Equal(t, vo.OrderStatusCancelled, o.Status())
	})

	t.Run("paid order cannot fail", func(t *testing.T) {
		o := testOrder(vo.PaymentStatusPaid)
		assert.Error(t, o.MarkPaymentFailed("too late", false))
	})
}

func TestValidateSettledAmount(t *testing.T) {
	o := testOrder(vo.PaymentStatusPending)

	assert.NoError(t, o.ValidateSettledAmount(50000))
	assert.Error(t, o.ValidateSettledAmount(49999))
	assert.Error(t, o.ValidateSettledAmount(50001))
	assert.Error(t, o.ValidateSettledAmount(0))
}
