package bkash

import (
	"context"
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
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/gateway/tokencache"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/logger"
)

type stubProvider struct {
	grantCalls   int32
	createCalls  int32
	executeCalls int32

	grantStatus      string
	createStatus     string
	executeStatus    string
	executeTrxStatus string
	executeAmount    string
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		grantStatus:      "0000",
		createStatus:     "0000",
		executeStatus:    "0000",
		executeTrxStatus: "Completed",
		executeAmount:    "500",
	}
}

func (s *stubProvider) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc(grantPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.grantCalls, 1)
		assert.Equal(t, "merchant-user", r.Header.Get("username"))
		assert.Equal(t, "merchant-pass", r.Header.Get("password"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "app-key-1", body["app_key"])
		assert.Equal(t, "app-secret-1", body["app_secret"])

		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": s.grantStatus,
			"id_token":   "bearer-token-1",
			"token_type": "Bearer",
			"expires_in": 3600,
		})
	})

	mux.HandleFunc(createPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.createCalls, 1)
		assert.Equal(t, "bearer-token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "app-key-1", r.Header.Get("X-APP-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0011", body["mode"])
		assert.Equal(t, "sale", body["intent"])
		assert.Equal(t, "500.00", body["amount"])
		assert.Equal(t, "ORD-1001", body["merchantInvoiceNumber"])
		assert.NotEmpty(t, body["payerReference"])

		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": s.createStatus,
			"paymentID":  "P1",
			"bkashURL":   "https://pay/P1",
		})
	})

	mux.HandleFunc(executePath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.executeCalls, 1)
		assert.Equal(t, "bearer-token-1", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "P1", body["paymentID"])

		json.NewEncoder(w).Encode(map[string]any{
			"statusCode":            s.executeStatus,
			"paymentID":             "P1",
			"trxID":                 "T1",
			"transactionStatus":     s.executeTrxStatus,
			"amount":                s.executeAmount,
			"currency":              "BDT",
			"merchantInvoiceNumber": "ORD-1001",
		})
	})

	return httptest.NewServer(mux)
}

func gatewayConfig(baseURL string) *store.GatewayConfig {
	return &store.GatewayConfig{
		StoreID: 7,
		Gateway: paymentvo.GatewayBkash,
		Bkash: &store.BkashConfig{
			Enabled:   true,
			BaseURL:   baseURL,
			Username:  "merchant-user",
			Password:  "merchant-pass",
			AppKey:    "app-key-1",
			AppSecret: "app-secret-1",
		},
	}
}

func newTestClient() *Client {
	return NewClient(tokencache.New(), 5*time.Second, logger.NewLogger())
}

func TestCreatePayment(t *testing.T) {
	stub := newStubProvider()
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()
	cfg := gatewayConfig(srv.URL)

	resp, err := client.CreatePayment(context.Background(), cfg, appgw.CreatePaymentRequest{
		OrderNo:     "ORD-1001",
		Amount:      sharedVO.NewMoney(50000, "BDT"),
		CallbackURL: "https://shop.example/api/checkout/payments/callback",
	})
	require.NoError(t, err)

	assert.Equal(t, "P1", resp.ProviderSessionID)
	assert.Equal(t, "https://pay/P1", resp.RedirectURL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.grantCalls))
}

func TestCreatePayment_TokenReusedAcrossCalls(t *testing.T) {
	stub := newStubProvider()
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()
	cfg := gatewayConfig(srv.URL)

	req := appgw.CreatePaymentRequest{
		OrderNo:     "ORD-1001",
		Amount:      sharedVO.NewMoney(50000, "BDT"),
		CallbackURL: "https://shop.example/cb",
	}

	_, err := client.CreatePayment(context.Background(), cfg, req)
	require.NoError(t, err)
	_, err = client.CreatePayment(context.Background(), cfg, req)
	require.NoError(t, err)

	// Two payments, one grant.
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.grantCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&stub.createCalls))
}

func TestCreatePayment_GrantRejected(t *testing.T) {
	stub := newStubProvider()
	stub.grantStatus = "9999"
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()

	_, err := client.CreatePayment(context.Background(), gatewayConfig(srv.URL), appgw.CreatePaymentRequest{
		OrderNo: "ORD-1001",
		Amount:  sharedVO.NewMoney(50000, "BDT"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryableGatewayError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&stub.createCalls))
}

func TestCreatePayment_CreateRejected(t *testing.T) {
	stub := newStubProvider()
	stub.createStatus = "2054"
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()

	_, err := client.CreatePayment(context.Background(), gatewayConfig(srv.URL), appgw.CreatePaymentRequest{
		OrderNo: "ORD-1001",
		Amount:  sharedVO.NewMoney(50000, "BDT"),
	})
	require.Error(t, err)

	gwErr := apperrors.GetGatewayError(err)
	require.NotNil(t, gwErr)
	assert.False(t, gwErr.Retryable)
}

func TestCreatePayment_MissingCredentials(t *testing.T) {
	client := newTestClient()

	_, err := client.CreatePayment(context.Background(), &store.GatewayConfig{Gateway: paymentvo.GatewayBkash}, appgw.CreatePaymentRequest{
		OrderNo: "ORD-1001",
		Amount:  sharedVO.NewMoney(50000, "BDT"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
}

func TestConfirmPayment(t *testing.T) {
	stub := newStubProvider()
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()

	result, err := client.ConfirmPayment(context.Background(), gatewayConfig(srv.URL), "P1")
	require.NoError(t, err)

	assert.Equal(t, "T1", result.TransactionID)
	assert.Equal(t, "P1", result.ProviderSessionID)
	assert.Equal(t, int64(50000), result.AmountInPoisha)
	assert.Equal(t, "ORD-1001", result.OrderNo)
}

func TestConfirmPayment_RequiresCompletedStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode string
		trxStatus  string
	}{
		{"non-zero status code", "2062", "Completed"},
		{"initiated transaction", "0000", "Initiated"},
		{"failed transaction", "0000", "Failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubProvider()
			stub.executeStatus = tt.statusCode
			stub.executeTrxStatus = tt.trxStatus
			srv := stub.server(t)
			defer srv.Close()

			client := newTestClient()

			_, err := client.ConfirmPayment(context.Background(), gatewayConfig(srv.URL), "P1")
			assert.Error(t, err)
		})
	}
}

func TestConfirmPayment_UnparseableAmount(t *testing.T) {
	stub := newStubProvider()
	stub.executeAmount = "fifty"
	srv := stub.server(t)
	defer srv.Close()

	client := newTestClient()

	_, err := client.ConfirmPayment(context.Background(), gatewayConfig(srv.URL), "P1")
	assert.Error(t, err)
}
