package usecases

import (
	"context"

	"github.com/FlexpointLLC/sellium-sub001/internal/application/checkout/gateway"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/order"
	ordervo "github.com/FlexpointLLC/sellium-sub001/internal/domain/order/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/payment"
	paymentvo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/store"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/goroutine"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/logger"
)

// CallbackSignal is the provider-agnostic outcome carried by a return
// callback, normalized by the HTTP layer before it reaches the reconciler.
type CallbackSignal string

const (
	SignalSuccess CallbackSignal = "success"
	SignalFailure CallbackSignal = "failure"
	SignalCancel  CallbackSignal = "cancel"
)

// CartStore clears a customer's cart after settlement. Clearing an
// already empty cart must succeed.
type CartStore interface {
	Clear(ctx context.Context, storeID uint, orderNo string) error
}

// MerchantNotifier informs the store owner about a settled payment.
type MerchantNotifier interface {
	NotifyPaymentReceived(ctx context.Context, storeID uint, orderNo string, amount sharedVO.Money, transactionID string) error
}

// SettlePaymentCommand carries one normalized provider callback.
type SettlePaymentCommand struct {
	StoreID           uint
	Gateway           string
	ProviderSessionID string
	Signal            CallbackSignal
}

type SettlePaymentResult struct {
	OrderNo       string
	PaymentStatus ordervo.PaymentStatus
	TransactionID string
}

// SettlePaymentUseCase is the reconciler: the single writer of an order's
// payment status. Callbacks are treated as untrusted hints; a success
// signal triggers server-side confirmation against the provider before
// any state changes, and the settled amount is compared against the order
// total regardless of gateway.
type SettlePaymentUseCase struct {
	orders      order.Repository
	sessions    payment.SessionRepository
	credentials store.CredentialLookup
	registry    *gateway.Registry
	carts       CartStore
	notifier    MerchantNotifier
	logger      logger.Interface
}

func NewSettlePaymentUseCase(
	orders order.Repository,
	sessions payment.SessionRepository,
	credentials store.CredentialLookup,
	registry *gateway.Registry,
	carts CartStore,
	log logger.Interface,
) *SettlePaymentUseCase {
	return &SettlePaymentUseCase{
		orders:      orders,
		sessions:    sessions,
		credentials: credentials,
		registry:    registry,
		carts:       carts,
		logger:      log,
	}
}

// SetMerchantNotifier wires the optional settlement notification.
func (uc *SettlePaymentUseCase) SetMerchantNotifier(n MerchantNotifier) {
	uc.notifier = n
}

func (uc *SettlePaymentUseCase) Execute(ctx context.Context, cmd SettlePaymentCommand) (*SettlePaymentResult, error) {
	gw, err := paymentvo.NewGateway(cmd.Gateway)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if cmd.ProviderSessionID == "" {
		return nil, apperrors.NewValidationError("provider session ID is required")
	}

	session, err := uc.sessions.GetByProviderSessionID(ctx, cmd.ProviderSessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.StoreID() != cmd.StoreID || session.Gateway() != gw {
		return nil, apperrors.NewNotFoundError("payment session not found")
	}

	ord, err := uc.orders.GetByID(ctx, session.OrderID())
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperrors.NewNotFoundError("order not found")
	}

	// Replayed callback for an already settled order: report the prior
	// outcome without touching the provider or re-running side effects.
	if ord.PaymentStatus() == ordervo.PaymentStatusPaid {
		return uc.settledResult(ord), nil
	}

	// Customer aborts and provider-declared failures never reach the
	// provider API; the signal alone decides the outcome.
	switch cmd.Signal {
	case SignalCancel:
		return uc.closeUnsettled(ctx, ord, session, "customer cancelled at gateway", true, true)
	case SignalFailure:
		// A callback-declared failure cancels fulfillment just like an
		// abort; only confirmation failures leave the order for the
		// merchant to handle.
		return uc.closeUnsettled(ctx, ord, session, "payment failed at gateway", true, false)
	case SignalSuccess:
		// fall through to confirmation
	default:
		return nil, apperrors.NewValidationError("unknown callback signal")
	}

	cfg, err := uc.credentials.GatewayConfig(ctx, cmd.StoreID, gw)
	if err != nil {
		return nil, err
	}
	adapter, err := uc.registry.Resolve(gw)
	if err != nil {
		return nil, err
	}

	confirmed, err := adapter.ConfirmPayment(ctx, cfg, cmd.ProviderSessionID)
	if err != nil {
		uc.logger.Warnw("payment confirmation failed",
			"store_id", cmd.StoreID,
			"order_no", ord.OrderNo(),
			"gateway", gw.String(),
			"provider_session_id", cmd.ProviderSessionID,
			"error", err)
		if _, cerr := uc.closeUnsettled(ctx, ord, session, err.Error(), false, false); cerr != nil {
			uc.logger.Errorw("failed to record confirmation failure",
				"order_no", ord.OrderNo(), "error", cerr)
		}
		return nil, err
	}

	if verr := ord.ValidateSettledAmount(confirmed.AmountInPoisha); verr != nil {
		mismatch := apperrors.NewAmountMismatchError(ord.Total().AmountInPoisha(), confirmed.AmountInPoisha)
		uc.logger.Errorw("settled amount does not match order total",
			"store_id", cmd.StoreID,
			"order_no", ord.OrderNo(),
			"gateway", gw.String(),
			"expected_poisha", ord.Total().AmountInPoisha(),
			"got_poisha", confirmed.AmountInPoisha,
			"transaction_id", confirmed.TransactionID)
		if _, cerr := uc.closeUnsettled(ctx, ord, session, mismatch.Message, false, false); cerr != nil {
			uc.logger.Errorw("failed to record amount mismatch",
				"order_no", ord.OrderNo(), "error", cerr)
		}
		return nil, mismatch
	}

	details := ordervo.PaymentDetails{
		Method:            gw.String(),
		TransactionID:     confirmed.TransactionID,
		ProviderPaymentID: confirmed.ProviderSessionID,
		Amount:            confirmed.AmountInPoisha,
	}
	if err := ord.MarkPaid(details); err != nil {
		return nil, apperrors.NewInternalError(err.Error())
	}
	if err := uc.orders.Update(ctx, ord); err != nil {
		return nil, err
	}

	if err := session.MarkSettled(confirmed.TransactionID); err != nil {
		uc.logger.Errorw("failed to settle session",
			"session_id", session.ID(), "error", err)
	} else if err := uc.sessions.Update(ctx, session); err != nil {
		uc.logger.Errorw("failed to persist settled session",
			"session_id", session.ID(), "error", err)
	}

	uc.runSideEffects(ctx, ord, confirmed.TransactionID)

	uc.logger.Infow("payment settled",
		"store_id", cmd.StoreID,
		"order_no", ord.OrderNo(),
		"gateway", gw.String(),
		"transaction_id", confirmed.TransactionID,
		"amount_poisha", confirmed.AmountInPoisha)

	return uc.settledResult(ord), nil
}

func (uc *SettlePaymentUseCase) settledResult(ord *order.Order) *SettlePaymentResult {
	trxID := ""
	if d := ord.PaymentDetails(); d != nil {
		trxID = d.TransactionID
	}
	return &SettlePaymentResult{
		OrderNo:       ord.OrderNo(),
		PaymentStatus: ord.PaymentStatus(),
		TransactionID: trxID,
	}
}

// closeUnsettled records a failed settlement attempt. cancelOrder drops
// fulfillment to cancelled (callback-declared cancel or failure signals);
// abortSession distinguishes a customer abort from a failed attempt on
// the session record.
func (uc *SettlePaymentUseCase) closeUnsettled(ctx context.Context, ord *order.Order, session *payment.Session, reason string, cancelOrder, abortSession bool) (*SettlePaymentResult, error) {
	if err := ord.MarkPaymentFailed(reason, cancelOrder); err != nil {
		return nil, apperrors.NewConflictError(err.Error())
	}
	if err := uc.orders.Update(ctx, ord); err != nil {
		return nil, err
	}

	var serr error
	if abortSession {
		serr = session.MarkCancelled()
	} else {
		serr = session.MarkFailed(reason)
	}
	if serr != nil {
		uc.logger.Warnw("session already terminal",
			"session_id", session.ID(), "error", serr)
	} else if err := uc.sessions.Update(ctx, session); err != nil {
		uc.logger.Errorw("failed to persist closed session",
			"session_id", session.ID(), "error", err)
	}

	return &SettlePaymentResult{
		OrderNo:       ord.OrderNo(),
		PaymentStatus: ord.PaymentStatus(),
	}, nil
}

// runSideEffects clears the cart and notifies the merchant. Both are
// best-effort: the settlement is already durable, so failures here are
// logged, never surfaced to the customer.
func (uc *SettlePaymentUseCase) runSideEffects(ctx context.Context, ord *order.Order, transactionID string) {
	if uc.carts != nil {
		if err := uc.carts.Clear(ctx, ord.StoreID(), ord.OrderNo()); err != nil {
			uc.logger.Errorw("failed to clear cart after settlement",
				"store_id", ord.StoreID(), "order_no", ord.OrderNo(), "error", err)
		}
	}

	if uc.notifier != nil {
		storeID := ord.StoreID()
		orderNo := ord.OrderNo()
		amount := ord.Total()
		goroutine.SafeGo(uc.logger, "merchant-settlement-notify", func() {
			if err := uc.notifier.NotifyPaymentReceived(context.Background(), storeID, orderNo, amount, transactionID); err != nil {
				uc.logger.Errorw("failed to notify merchant of settlement",
					"store_id", storeID, "order_no", orderNo, "error", err)
			}
		})
	}
}
