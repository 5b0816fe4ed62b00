// Package bkash implements the bKash tokenized checkout flow: bearer-token
// grant, payment creation, and payment execution. The client is stateless;
// per-store credentials travel with every call and grant results live in
// the shared token cache, partitioned by credential set.
package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	appgw "github.com/FlexpointLLC/sellium-sub001/internal/application/checkout/gateway"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/store"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/gateway/tokencache"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/biztime"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/logger"
)

const (
	grantPath   = "/tokenized/checkout/token/grant"
	createPath  = "/tokenized/checkout/create"
	executePath = "/tokenized/checkout/execute"

	// statusOK is bKash's success status code.
	statusOK = "0000"

	// tokenLifetimeFallback is used when the grant response omits
	// expires_in; bKash documents a one-hour token lifetime.
	tokenLifetimeFallback = time.Hour

	transactionCompleted = "Completed"
)

type Client struct {
	httpClient *http.Client
	tokens     *tokencache.Cache
	logger     logger.Interface
}

var _ appgw.CheckoutGateway = (*Client)(nil)

func NewClient(tokens *tokencache.Cache, timeout time.Duration, log logger.Interface) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     log,
	}
}

type grantRequest struct {
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
}

type grantResponse struct {
	StatusCode    string      `json:"statusCode"`
	StatusMessage string      `json:"statusMessage"`
	IDToken       string      `json:"id_token"`
	TokenType     string      `json:"token_type"`
	ExpiresIn     json.Number `json:"expires_in"`
}

type createRequest struct {
	Mode                  string `json:"mode"`
	PayerReference        string `json:"payerReference"`
	CallbackURL           string `json:"callbackURL"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
}

type createResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
}

type executeRequest struct {
	PaymentID string `json:"paymentID"`
}

type executeResponse struct {
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
}

// CreatePayment opens a bKash checkout session and returns the
// provider-hosted redirect URL.
func (c *Client) CreatePayment(ctx context.Context, cfg *store.GatewayConfig, req appgw.CreatePaymentRequest) (*appgw.CreatePaymentResponse, error) {
	bk, err := bkashConfig(cfg)
	if err != nil {
		return nil, err
	}

	token, err := c.bearerToken(ctx, bk)
	if err != nil {
		return nil, err
	}

	body := createRequest{
		Mode:                  "0011",
		PayerReference:        uuid.NewString(),
		CallbackURL:           req.CallbackURL,
		Amount:                req.Amount.TakaString(),
		Currency:              req.Amount.Currency(),
		Intent:                "sale",
		MerchantInvoiceNumber: req.OrderNo,
	}

	var resp createResponse
	if err := c.postJSON(ctx, bk.BaseURL+createPath, authHeaders(token, bk.AppKey), body, &resp); err != nil {
		return nil, apperrors.NewPaymentCreateError(err.Error())
	}

	if resp.StatusCode != statusOK {
		c.logger.Warnw("bkash create rejected",
			"status_code", resp.StatusCode,
			"status_message", resp.StatusMessage,
			"order_no", req.OrderNo)
		return nil, apperrors.NewPaymentCreateError(resp.StatusMessage)
	}
	if resp.PaymentID == "" || resp.BkashURL == "" {
		return nil, apperrors.NewPaymentCreateError("create response missing paymentID or bkashURL")
	}

	return &appgw.CreatePaymentResponse{
		ProviderSessionID: resp.PaymentID,
		RedirectURL:       resp.BkashURL,
	}, nil
}

// ConfirmPayment executes a created payment. Success requires both the
// "0000" status code and transactionStatus Completed; executing an
// already-completed payment reports the same transaction again, so
// settlement idempotency is enforced by the reconciler, not here.
func (c *Client) ConfirmPayment(ctx context.Context, cfg *store.GatewayConfig, providerSessionID string) (*appgw.ConfirmResult, error) {
	bk, err := bkashConfig(cfg)
	if err != nil {
		return nil, err
	}

	token, err := c.bearerToken(ctx, bk)
	if err != nil {
		return nil, err
	}

	var resp executeResponse
	if err := c.postJSON(ctx, bk.BaseURL+executePath, authHeaders(token, bk.AppKey), executeRequest{PaymentID: providerSessionID}, &resp); err != nil {
		return nil, apperrors.NewPaymentExecuteError(err.Error())
	}

	if resp.StatusCode != statusOK || resp.TransactionStatus != transactionCompleted {
		c.logger.Warnw("bkash execute rejected",
			"status_code", resp.StatusCode,
			"status_message", resp.StatusMessage,
			"transaction_status", resp.TransactionStatus,
			"payment_id", providerSessionID)
		reason := resp.StatusMessage
		if reason == "" {
			reason = fmt.Sprintf("transaction status %q", resp.TransactionStatus)
		}
		return nil, apperrors.NewPaymentExecuteError(reason)
	}

	amount, err := sharedVO.ParseTaka(resp.Amount)
	if err != nil {
		return nil, apperrors.NewPaymentExecuteError(fmt.Sprintf("unparseable amount %q", resp.Amount))
	}

	return &appgw.ConfirmResult{
		TransactionID:     resp.TrxID,
		ProviderSessionID: resp.PaymentID,
		AmountInPoisha:    amount,
		OrderNo:           resp.MerchantInvoiceNumber,
	}, nil
}

// bearerToken returns a cached token for the store's credential set,
// granting a fresh one through the shared cache when needed.
func (c *Client) bearerToken(ctx context.Context, bk *store.BkashConfig) (string, error) {
	creds := tokencache.Credentials{AppKey: bk.AppKey, AppSecret: bk.AppSecret}

	return c.tokens.Get(ctx, creds, func(ctx context.Context) (tokencache.Token, error) {
		return c.grantToken(ctx, bk)
	})
}

func (c *Client) grantToken(ctx context.Context, bk *store.BkashConfig) (tokencache.Token, error) {
	headers := map[string]string{
		"username": bk.Username,
		"password": bk.Password,
	}

	var resp grantResponse
	if err := c.postJSON(ctx, bk.BaseURL+grantPath, headers, grantRequest{AppKey: bk.AppKey, AppSecret: bk.AppSecret}, &resp); err != nil {
		return tokencache.Token{}, apperrors.NewGatewayAuthError(err.Error())
	}

	if resp.StatusCode != statusOK || resp.IDToken == "" {
		c.logger.Warnw("bkash token grant rejected",
			"status_code", resp.StatusCode,
			"status_message", resp.StatusMessage)
		return tokencache.Token{}, apperrors.NewGatewayAuthError(resp.StatusMessage)
	}

	lifetime := tokenLifetimeFallback
	if secs, err := resp.ExpiresIn.Int64(); err == nil && secs > 0 {
		lifetime = time.Duration(secs) * time.Second
	}

	return tokencache.Token{
		Value:     resp.IDToken,
		ExpiresAt: biztime.NowUTC().Add(lifetime),
	}, nil
}

func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected HTTP status %d from %s", resp.StatusCode, url)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func authHeaders(token, appKey string) map[string]string {
	return map[string]string{
		"Authorization": token,
		"X-APP-Key":     appKey,
	}
}

func bkashConfig(cfg *store.GatewayConfig) (*store.BkashConfig, error) {
	if cfg == nil || cfg.Bkash == nil {
		return nil, apperrors.NewConfigurationError("bkash credentials missing from gateway config")
	}
	return cfg.Bkash, nil
}
