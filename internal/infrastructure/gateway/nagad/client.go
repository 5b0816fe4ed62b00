// Package nagad implements the Nagad checkout handshake: a two-phase
// initialize/complete exchange of RSA-encrypted, signed sensitive blocks,
// followed by a plain verification query after the customer returns.
// The provider issues a random challenge during initialize; the second,
// amount-bearing payload must echo it, binding the amount to the session
// and preventing replay of a stale initialize response.
package nagad

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appgw "github.com/FlexpointLLC/sellium-sub001/internal/application/checkout/gateway"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/store"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/gateway/pkcrypto"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/biztime"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/logger"
)

const (
	initializePathFmt = "/api/dfs/check-out/initialize/%s/%s"
	completePathFmt   = "/api/dfs/check-out/complete/%s"
	verifyPathFmt     = "/api/dfs/verify/payment/%s"

	statusSuccess = "Success"

	// currencyBDT is ISO 4217 numeric for Bangladeshi taka.
	currencyBDT = "050"

	datetimeLayout = "20060102150405"

	defaultClientType = "PC_WEB"
)

type Client struct {
	httpClient *http.Client
	clientIP   string
	clientType string
	logger     logger.Interface
}

var _ appgw.CheckoutGateway = (*Client)(nil)

func NewClient(clientIP, clientType string, timeout time.Duration, log logger.Interface) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if clientType == "" {
		clientType = defaultClientType
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		clientIP:   clientIP,
		clientType: clientType,
		logger:     log,
	}
}

// signedPayload is the envelope every sensitive block travels in.
type signedPayload struct {
	SensitiveData string `json:"sensitiveData"`
	Signature     string `json:"signature"`
}

type initSensitiveData struct {
	MerchantID string `json:"merchantId"`
	DateTime   string `json:"datetime"`
	OrderID    string `json:"orderId"`
	Challenge  string `json:"challenge"`
}

type initResponse struct {
	SensitiveData string `json:"sensitiveData"`
	Signature     string `json:"signature"`
	Reason        string `json:"reason"`
	Message       string `json:"message"`
}

type initResponseData struct {
	PaymentReferenceID string `json:"paymentReferenceId"`
	Challenge          string `json:"challenge"`
	AcceptDateTime     string `json:"acceptDateTime"`
}

type completeSensitiveData struct {
	MerchantID   string `json:"merchantId"`
	OrderID      string `json:"orderId"`
	CurrencyCode string `json:"currencyCode"`
	Amount       string `json:"amount"`
	Challenge    string `json:"challenge"`
}

type completeRequest struct {
	SensitiveData       string `json:"sensitiveData"`
	Signature           string `json:"signature"`
	MerchantCallbackURL string `json:"merchantCallbackURL"`
}

type completeResponse struct {
	Status      string `json:"status"`
	CallBackURL string `json:"callBackUrl"`
	Reason      string `json:"reason"`
	Message     string `json:"message"`
}

type verifyResponse struct {
	Status             string `json:"status"`
	StatusCode         string `json:"statusCode"`
	PaymentRefID       string `json:"paymentRefId"`
	IssuerPaymentRefNo string `json:"issuerPaymentRefNo"`
	Amount             string `json:"amount"`
	OrderID            string `json:"orderId"`
	Message            string `json:"message"`
}

// CreatePayment runs the full initialize/complete handshake and returns
// the provider-hosted checkout URL. A handshake failure at any point
// aborts before the amount-bearing phase.
func (c *Client) CreatePayment(ctx context.Context, cfg *store.GatewayConfig, req appgw.CreatePaymentRequest) (*appgw.CreatePaymentResponse, error) {
	ng, keys, err := nagadConfig(cfg)
	if err != nil {
		return nil, err
	}

	session, err := c.initialize(ctx, ng, keys, req.OrderNo)
	if err != nil {
		return nil, err
	}

	redirectURL, err := c.complete(ctx, ng, keys, session, req)
	if err != nil {
		return nil, err
	}

	return &appgw.CreatePaymentResponse{
		ProviderSessionID: session.PaymentReferenceID,
		RedirectURL:       redirectURL,
	}, nil
}

// ConfirmPayment issues the plain (non-encrypted) verification query.
func (c *Client) ConfirmPayment(ctx context.Context, cfg *store.GatewayConfig, providerSessionID string) (*appgw.ConfirmResult, error) {
	ng, _, err := nagadConfig(cfg)
	if err != nil {
		return nil, err
	}

	url := ng.BaseURL + fmt.Sprintf(verifyPathFmt, providerSessionID)

	var resp verifyResponse
	if err := c.doJSON(ctx, http.MethodGet, url, ng.APIVersion, nil, &resp); err != nil {
		return nil, apperrors.NewVerificationError(err.Error())
	}

	if resp.Status != statusSuccess {
		c.logger.Warnw("nagad verification rejected",
			"status", resp.Status,
			"status_code", resp.StatusCode,
			"payment_ref_id", providerSessionID)
		reason := resp.Message
		if reason == "" {
			reason = fmt.Sprintf("verification status %q", resp.Status)
		}
		return nil, apperrors.NewVerificationError(reason)
	}

	amount, err := sharedVO.ParseTaka(resp.Amount)
	if err != nil {
		return nil, apperrors.NewVerificationError(fmt.Sprintf("unparseable amount %q", resp.Amount))
	}

	return &appgw.ConfirmResult{
		TransactionID:     resp.IssuerPaymentRefNo,
		ProviderSessionID: providerSessionID,
		AmountInPoisha:    amount,
		OrderNo:           resp.OrderID,
	}, nil
}

// initialize posts the first signed+encrypted block and recovers the
// provider's payment reference and challenge from its encrypted reply.
func (c *Client) initialize(ctx context.Context, ng *store.NagadConfig, keys *keyPair, orderNo string) (*initResponseData, error) {
	challenge, err := randomChallenge()
	if err != nil {
		return nil, apperrors.NewHandshakeError("initialize", err.Error())
	}

	block := initSensitiveData{
		MerchantID: ng.MerchantID,
		DateTime:   biztime.NowUTC().In(biztime.Location()).Format(datetimeLayout),
		OrderID:    orderNo,
		Challenge:  challenge,
	}

	payload, err := seal(keys, block)
	if err != nil {
		return nil, apperrors.NewHandshakeError("initialize", err.Error())
	}

	url := ng.BaseURL + fmt.Sprintf(initializePathFmt, ng.MerchantID, orderNo)

	var resp initResponse
	if err := c.doJSON(ctx, http.MethodPost, url, ng.APIVersion, payload, &resp); err != nil {
		return nil, apperrors.NewPaymentCreateError(err.Error())
	}

	if resp.SensitiveData == "" || resp.Signature == "" {
		reason := resp.Message
		if reason == "" {
			reason = resp.Reason
		}
		if reason != "" {
			return nil, apperrors.NewPaymentCreateError(reason)
		}
		return nil, apperrors.NewHandshakeError("initialize", "response missing sensitive data or signature")
	}

	plaintext, err := pkcrypto.Decrypt(keys.merchantPrivate, resp.SensitiveData)
	if err != nil {
		c.logger.Errorw("nagad initialize response decryption failed",
			"merchant_id", ng.MerchantID,
			"order_no", orderNo,
			"error", err)
		return nil, apperrors.NewHandshakeError("initialize", "response decryption failed")
	}

	if err := pkcrypto.Verify(keys.nagadPublic, plaintext, resp.Signature); err != nil {
		c.logger.Errorw("nagad initialize response signature invalid",
			"merchant_id", ng.MerchantID,
			"order_no", orderNo,
			"error", err)
		return nil, apperrors.NewHandshakeError("initialize", "response signature verification failed")
	}

	var data initResponseData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, apperrors.NewHandshakeError("initialize", "undecodable sensitive data")
	}
	if data.PaymentReferenceID == "" || data.Challenge == "" {
		return nil, apperrors.NewHandshakeError("initialize", "response missing payment reference or challenge")
	}

	return &data, nil
}

// complete binds the amount and the echoed challenge into the second
// signed+encrypted block and returns the hosted checkout URL.
func (c *Client) complete(ctx context.Context, ng *store.NagadConfig, keys *keyPair, session *initResponseData, req appgw.CreatePaymentRequest) (string, error) {
	block := completeSensitiveData{
		MerchantID:   ng.MerchantID,
		OrderID:      req.OrderNo,
		CurrencyCode: currencyBDT,
		Amount:       req.Amount.TakaString(),
		Challenge:    session.Challenge,
	}

	payload, err := seal(keys, block)
	if err != nil {
		return "", apperrors.NewHandshakeError("complete", err.Error())
	}

	body := completeRequest{
		SensitiveData:       payload.SensitiveData,
		Signature:           payload.Signature,
		MerchantCallbackURL: req.CallbackURL,
	}

	url := ng.BaseURL + fmt.Sprintf(completePathFmt, session.PaymentReferenceID)

	var resp completeResponse
	if err := c.doJSON(ctx, http.MethodPost, url, ng.APIVersion, body, &resp); err != nil {
		return "", apperrors.NewPaymentCreateError(err.Error())
	}

	if resp.Status != statusSuccess || resp.CallBackURL == "" {
		reason := resp.Message
		if reason == "" {
			reason = fmt.Sprintf("complete status %q", resp.Status)
		}
		return "", apperrors.NewPaymentCreateError(reason)
	}

	return resp.CallBackURL, nil
}

// keyPair holds the parsed key material for one store.
type keyPair struct {
	merchantPrivate *rsa.PrivateKey
	nagadPublic     *rsa.PublicKey
}

func nagadConfig(cfg *store.GatewayConfig) (*store.NagadConfig, *keyPair, error) {
	if cfg == nil || cfg.Nagad == nil {
		return nil, nil, apperrors.NewConfigurationError("nagad credentials not configured")
	}
	priv, err := pkcrypto.ParsePrivateKey(cfg.Nagad.MerchantPrivateKey)
	if err != nil {
		return nil, nil, apperrors.NewConfigurationError("invalid merchant private key")
	}
	pub, err := pkcrypto.ParsePublicKey(cfg.Nagad.NagadPublicKey)
	if err != nil {
		return nil, nil, apperrors.NewConfigurationError("invalid provider public key")
	}
	return cfg.Nagad, &keyPair{merchantPrivate: priv, nagadPublic: pub}, nil
}

// seal serializes a sensitive block, signs it with the merchant key and
// encrypts it for the provider.
func seal(keys *keyPair, block any) (*signedPayload, error) {
	plaintext, err := json.Marshal(block)
	if err != nil {
		return nil, err
	}
	signature, err := pkcrypto.Sign(keys.merchantPrivate, plaintext)
	if err != nil {
		return nil, err
	}
	ciphertext, err := pkcrypto.Encrypt(keys.nagadPublic, plaintext)
	if err != nil {
		return nil, err
	}
	return &signedPayload{SensitiveData: ciphertext, Signature: signature}, nil
}

func randomChallenge() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

const maxResponseBytes = 1 << 20

// doJSON performs one request with the Nagad header trio and decodes
// the JSON body into out.
func (c *Client) doJSON(ctx context.Context, method, url, apiVersion string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-KM-Api-Version", apiVersion)
	req.Header.Set("X-KM-IP-V4", c.clientIP)
	req.Header.Set("X-KM-Client-Type", c.clientType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("nagad returned HTTP %d", resp.StatusCode)
	}

	return json.Unmarshal(raw, out)
}
