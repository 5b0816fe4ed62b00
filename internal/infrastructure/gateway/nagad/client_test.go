package nagad

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appgw "github.com/FlexpointLLC/sellium-sub001/internal/application/checkout/gateway"
	paymentvo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/store"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/gateway/pkcrypto"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/logger"
)

const testMerchantID = "683002007104225"

type testKeys struct {
	merchant *rsa.PrivateKey
	provider *rsa.PrivateKey
}

func newTestKeys(t *testing.T) *testKeys {
	t.Helper()
	merchant, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	provider, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &testKeys{merchant: merchant, provider: provider}
}

func (k *testKeys) config(baseURL string) *store.GatewayConfig {
	merchantDER, _ := x509.MarshalPKCS8PrivateKey(k.merchant)
	providerDER, _ := x509.MarshalPKIXPublicKey(&k.provider.PublicKey)

	return &store.GatewayConfig{
		StoreID: 7,
		Gateway: paymentvo.GatewayNagad,
		Nagad: &store.NagadConfig{
			Enabled:            true,
			BaseURL:            baseURL,
			MerchantID:         testMerchantID,
			MerchantPrivateKey: base64.StdEncoding.EncodeToString(merchantDER),
			NagadPublicKey:     base64.StdEncoding.EncodeToString(providerDER),
			APIVersion:         "v-0.2.0",
		},
	}
}

// open decrypts and verifies a client payload the way the provider would.
func (k *testKeys) open(t *testing.T, payload signedPayload) map[string]any {
	t.Helper()
	plaintext, err := pkcrypto.Decrypt(k.provider, payload.SensitiveData)
	require.NoError(t, err)
	require.NoError(t, pkcrypto.Verify(&k.merchant.PublicKey, plaintext, payload.Signature))

	var block map[string]any
	require.NoError(t, json.Unmarshal(plaintext, &block))
	return block
}

// sealResponse encrypts a provider reply for the merchant and signs it.
func (k *testKeys) sealResponse(t *testing.T, block map[string]any) signedPayload {
	t.Helper()
	plaintext, err := json.Marshal(block)
	require.NoError(t, err)

	ciphertext, err := pkcrypto.Encrypt(&k.merchant.PublicKey, plaintext)
	require.NoError(t, err)
	signature, err := pkcrypto.Sign(k.provider, plaintext)
	require.NoError(t, err)

	return signedPayload{SensitiveData: ciphertext, Signature: signature}
}

type stubNagad struct {
	keys *testKeys

	initCalls     int32
	completeCalls int32
	verifyCalls   int32

	corruptInitSignature bool
	completeStatus       string
	verifyStatus         string
	verifyAmount         string
}

func newStubNagad(keys *testKeys) *stubNagad {
	return &stubNagad{
		keys:           keys,
		completeStatus: "Success",
		verifyStatus:   "Success",
		verifyAmount:   "500",
	}
}

func (s *stubNagad) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/dfs/check-out/initialize/"+testMerchantID+"/ORD-1001", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.initCalls, 1)
		assert.Equal(t, "v-0.2.0", r.Header.Get("X-KM-Api-Version"))
		assert.Equal(t, "203.0.113.9", r.Header.Get("X-KM-IP-V4"))
		assert.Equal(t, "PC_WEB", r.Header.Get("X-KM-Client-Type"))

		var payload signedPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		block := s.keys.open(t, payload)
		assert.Equal(t, testMerchantID, block["merchantId"])
		assert.Equal(t, "ORD-1001", block["orderId"])
		assert.NotEmpty(t, block["challenge"])
		assert.NotEmpty(t, block["datetime"])

		resp := s.keys.sealResponse(t, map[string]any{
			"paymentReferenceId": "REF1",
			"challenge":          "chal-1",
		})
		if s.corruptInitSignature {
			resp.Signature = resp.Signature[1:] + "A"
		}
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/api/dfs/check-out/complete/REF1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.completeCalls, 1)

		var req completeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.MerchantCallbackURL)

		block := s.keys.open(t, signedPayload{SensitiveData: req.SensitiveData, Signature: req.Signature})
		assert.Equal(t, "500.00", block["amount"])
		assert.Equal(t, "050", block["currencyCode"])
		assert.Equal(t, "chal-1", block["challenge"])
		assert.Equal(t, "ORD-1001", block["orderId"])

		json.NewEncoder(w).Encode(map[string]any{
			"status":      s.completeStatus,
			"callBackUrl": "https://nagad.example/pay/REF1",
		})
	})

	mux.HandleFunc("/api/dfs/verify/payment/REF1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.verifyCalls, 1)
		assert.Equal(t, http.MethodGet, r.Method)

		json.NewEncoder(w).Encode(map[string]any{
			"status":             s.verifyStatus,
			"statusCode":         "000",
			"paymentRefId":       "REF1",
			"issuerPaymentRefNo": "N-TRX-1",
			"amount":             s.verifyAmount,
			"orderId":            "ORD-1001",
		})
	})

	return httptest.NewServer(mux)
}

func newTestClient() *Client {
	return NewClient("203.0.113.9", "PC_WEB", 5*time.Second, logger.NewLogger())
}

func createReq() appgw.CreatePaymentRequest {
	return appgw.CreatePaymentRequest{
		OrderNo:     "ORD-1001",
		Amount:      sharedVO.NewMoney(50000, "BDT"),
		CallbackURL: "https://shop.example/api/checkout/payments/callback",
	}
}

func TestCreatePayment(t *testing.T) {
	keys := newTestKeys(t)
	stub := newStubNagad(keys)
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()

	resp, err := client.CreatePayment(context.Background(), keys.config(srv.URL), createReq())
	require.NoError(t, err)

	assert.Equal(t, "REF1", resp.ProviderSessionID)
	assert.Equal(t, "https://nagad.example/pay/REF1", resp.RedirectURL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.initCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.completeCalls))
}

func TestCreatePayment_CorruptedResponseSignature(t *testing.T) {
	keys := newTestKeys(t)
	stub := newStubNagad(keys)
	stub.corruptInitSignature = true
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()

	_, err := client.CreatePayment(context.Background(), keys.config(srv.URL), createReq())
	require.Error(t, err)
	assert.True(t, apperrors.IsHandshakeError(err))
	assert.True(t, apperrors.IsSecurityEvent(err))

	// The amount-bearing phase must never run after a failed handshake.
	assert.Equal(t, int32(0), atomic.LoadInt32(&stub.completeCalls))
}

func TestCreatePayment_CompleteRejected(t *testing.T) {
	keys := newTestKeys(t)
	stub := newStubNagad(keys)
	stub.completeStatus = "Failed"
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()

	_, err := client.CreatePayment(context.Background(), keys.config(srv.URL), createReq())
	assert.Error(t, err)
}

func TestCreatePayment_InvalidKeyMaterial(t *testing.T) {
	client := newTestClient()

	cfg := &store.GatewayConfig{
		Gateway: paymentvo.GatewayNagad,
		Nagad: &store.NagadConfig{
			Enabled:            true,
			BaseURL:            "http://localhost:0",
			MerchantID:         testMerchantID,
			MerchantPrivateKey: "garbage",
			NagadPublicKey:     "garbage",
			APIVersion:         "v-0.2.0",
		},
	}

	_, err := client.CreatePayment(context.Background(), cfg, createReq())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
}

func TestConfirmPayment(t *testing.T) {
	keys := newTestKeys(t)
	stub := newStubNagad(keys)
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()

	result, err := client.ConfirmPayment(context.Background(), keys.config(srv.URL), "REF1")
	require.NoError(t, err)

	assert.Equal(t, "N-TRX-1", result.TransactionID)
	assert.Equal(t, "REF1", result.ProviderSessionID)
	assert.Equal(t, int64(50000), result.AmountInPoisha)
	assert.Equal(t, "ORD-1001", result.OrderNo)
}

func TestConfirmPayment_RequiresSuccessStatus(t *testing.T) {
	for _, status := range []string{"Aborted", "Failed", "Cancelled", ""} {
		t.Run("status "+status, func(t *testing.T) {
			keys := newTestKeys(t)
			stub := newStubNagad(keys)
			stub.verifyStatus = status
			srv := stub.server(t)
			defer srv.Close()

			client := newTestClient()

			_, err := client.ConfirmPayment(context.Background(), keys.config(srv.URL), "REF1")
			assert.Error(t, err)
		})
	}
}
