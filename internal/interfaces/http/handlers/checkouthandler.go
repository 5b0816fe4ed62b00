package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	checkoutUsecases "github.com/FlexpointLLC/sellium-sub001/internal/application/checkout/usecases"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/logger"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/utils"
)

type CheckoutHandler struct {
	createPaymentUC *checkoutUsecases.CreatePaymentUseCase
	settlePaymentUC *checkoutUsecases.SettlePaymentUseCase
	logger          logger.Interface
}

func NewCheckoutHandler(
	createPaymentUC *checkoutUsecases.CreatePaymentUseCase,
	settlePaymentUC *checkoutUsecases.SettlePaymentUseCase,
	logger logger.Interface,
) *CheckoutHandler {
	return &CheckoutHandler{
		createPaymentUC: createPaymentUC,
		settlePaymentUC: settlePaymentUC,
		logger:          logger,
	}
}

type CreatePaymentRequest struct {
	StoreID uint   `json:"store_id" binding:"required"`
	OrderNo string `json:"order_no" binding:"required"`
	Gateway string `json:"gateway" binding:"required,oneof=bkash nagad"`
}

type CreatePaymentResponse struct {
	SessionID   uint   `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// CreatePayment opens a gateway session for an order and returns the
// provider-hosted checkout URL the storefront should redirect to.
// @Summary Create payment session
// @Description Open a gateway session for an unpaid order and return the checkout redirect URL
// @Tags checkout
// @Accept json
// @Produce json
// @Param data body CreatePaymentRequest true "Payment request"
// @Success 200 {object} utils.APIResponse{data=CreatePaymentResponse} "Payment session created"
// @Failure 400 {object} utils.APIResponse "Bad request"
// @Failure 404 {object} utils.APIResponse "Order not found"
// @Failure 409 {object} utils.APIResponse "Order already paid"
// @Router /checkout/payments [post]
func (h *CheckoutHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("failed to bind create payment request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	result, err := h.createPaymentUC.Execute(c.Request.Context(), checkoutUsecases.CreatePaymentCommand{
		StoreID: req.StoreID,
		OrderNo: req.OrderNo,
		Gateway: req.Gateway,
	})
	if err != nil {
		h.logger.Errorw("failed to create payment",
			"store_id", req.StoreID, "order_no", req.OrderNo, "gateway", req.Gateway, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "payment session created", CreatePaymentResponse{
		SessionID:   result.SessionID,
		RedirectURL: result.RedirectURL,
	})
}

type PaymentCallbackResponse struct {
	OrderNo       string `json:"order_no"`
	PaymentStatus string `json:"payment_status"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// PaymentCallback receives the customer's return from the provider-hosted
// checkout. Query shapes differ per provider, so the handler normalizes
// them into one signal before handing off to the reconciler. The callback
// itself never decides the outcome of a success: that is confirmed
// server-side against the provider.
// @Summary Payment callback
// @Description Handle the customer's return from the provider-hosted checkout page
// @Tags checkout
// @Produce json
// @Param gateway query string true "Gateway name (bkash or nagad)"
// @Param store_id query int true "Store ID"
// @Success 200 {object} utils.APIResponse{data=PaymentCallbackResponse} "Callback processed"
// @Failure 400 {object} utils.APIResponse "Bad request"
// @Failure 404 {object} utils.APIResponse "Unknown payment session"
// @Router /checkout/payments/callback [get]
func (h *CheckoutHandler) PaymentCallback(c *gin.Context) {
	storeID, err := strconv.ParseUint(c.Query("store_id"), 10, 32)
	if err != nil || storeID == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid store_id")
		return
	}
	gateway := c.Query("gateway")

	providerSessionID, signal, ok := normalizeCallback(gateway, c)
	if !ok {
		utils.ErrorResponse(c, http.StatusBadRequest, "unrecognized callback parameters")
		return
	}

	result, err := h.settlePaymentUC.Execute(c.Request.Context(), checkoutUsecases.SettlePaymentCommand{
		StoreID:           uint(storeID),
		Gateway:           gateway,
		ProviderSessionID: providerSessionID,
		Signal:            signal,
	})
	if err != nil {
		h.logger.Errorw("failed to settle payment",
			"store_id", storeID, "gateway", gateway,
			"provider_session_id", providerSessionID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "callback processed", PaymentCallbackResponse{
		OrderNo:       result.OrderNo,
		PaymentStatus: result.PaymentStatus.String(),
		TransactionID: result.TransactionID,
	})
}

// normalizeCallback maps provider-specific query parameters to the shared
// callback signal.
//
// bKash sends paymentID and status in {success, failure, cancel}.
// Nagad sends payment_ref_id and status in {Success, Failed, Aborted}.
func normalizeCallback(gateway string, c *gin.Context) (string, checkoutUsecases.CallbackSignal, bool) {
	switch gateway {
	case "bkash":
		id := c.Query("paymentID")
		if id == "" {
			return "", "", false
		}
		switch c.Query("status") {
		case "success":
			return id, checkoutUsecases.SignalSuccess, true
		case "cancel":
			return id, checkoutUsecases.SignalCancel, true
		default:
			return id, checkoutUsecases.SignalFailure, true
		}
	case "nagad":
		id := c.Query("payment_ref_id")
		if id == "" {
			return "", "", false
		}
		switch c.Query("status") {
		case "Success":
			return id, checkoutUsecases.SignalSuccess, true
		case "Aborted":
			return id, checkoutUsecases.SignalCancel, true
		default:
			return id, checkoutUsecases.SignalFailure, true
		}
	default:
		return "", "", false
	}
}
