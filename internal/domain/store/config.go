package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	paymentVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
)

// BkashConfig is a store's bKash credential bundle.
type BkashConfig struct {
	Enabled   bool   `json:"enabled"`
	BaseURL   string `json:"base_url"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
}

// NagadConfig is a store's Nagad credential bundle. Keys are PEM or bare
// base64 DER; parsing is deferred to the crypto engine.
type NagadConfig struct {
	Enabled            bool   `json:"enabled"`
	BaseURL            string `json:"base_url"`
	MerchantID         string `json:"merchant_id"`
	MerchantPrivateKey string `json:"merchant_private_key"`
	NagadPublicKey     string `json:"nagad_public_key"`
	APIVersion         string `json:"api_version"`
}

// GatewayConfig is the per-store, per-gateway credential bundle, parsed
// once at the boundary. Exactly one branch is set, matching Gateway.
// Immutable once loaded for a request.
type GatewayConfig struct {
	StoreID uint
	Gateway paymentVO.Gateway
	Bkash   *BkashConfig
	Nagad   *NagadConfig
}

// paymentSettings is the raw shape of a store's payment_settings column.
type paymentSettings struct {
	Bkash *BkashConfig `json:"bkash"`
	Nagad *NagadConfig `json:"nagad"`
}

// ParsePaymentSettings decodes a store's payment_settings JSON and returns
// the validated credential bundle for the requested gateway. The column is
// sometimes double-encoded (a JSON string containing JSON); one level of
// unquoting is tolerated. Anything malformed, disabled, or incomplete is a
// configuration error surfaced before any network call.
func ParsePaymentSettings(storeID uint, raw []byte, gateway paymentVO.Gateway) (*GatewayConfig, error) {
	if len(raw) == 0 {
		return nil, apperrors.NewConfigurationError(
			"payment settings not configured",
			fmt.Sprintf("store %d has no payment settings", storeID))
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		unquoted, err := strconv.Unquote(trimmed)
		if err != nil {
			return nil, apperrors.NewConfigurationError(
				"malformed payment settings",
				fmt.Sprintf("store %d: %v", storeID, err))
		}
		trimmed = unquoted
	}

	var settings paymentSettings
	if err := json.Unmarshal([]byte(trimmed), &settings); err != nil {
		return nil, apperrors.NewConfigurationError(
			"malformed payment settings",
			fmt.Sprintf("store %d: %v", storeID, err))
	}

	cfg := &GatewayConfig{StoreID: storeID, Gateway: gateway}

	switch gateway {
	case paymentVO.GatewayBkash:
		if settings.Bkash == nil || !settings.Bkash.Enabled {
			return nil, apperrors.NewConfigurationError(
				"bkash is not enabled for this store",
				fmt.Sprintf("store %d", storeID))
		}
		if err := settings.Bkash.validate(); err != nil {
			return nil, apperrors.NewConfigurationError(
				"incomplete bkash configuration",
				fmt.Sprintf("store %d: %v", storeID, err))
		}
		cfg.Bkash = settings.Bkash

	case paymentVO.GatewayNagad:
		if settings.Nagad == nil || !settings.Nagad.Enabled {
			return nil, apperrors.NewConfigurationError(
				"nagad is not enabled for this store",
				fmt.Sprintf("store %d", storeID))
		}
		if err := settings.Nagad.validate(); err != nil {
			return nil, apperrors.NewConfigurationError(
				"incomplete nagad configuration",
				fmt.Sprintf("store %d: %v", storeID, err))
		}
		cfg.Nagad = settings.Nagad

	default:
		return nil, apperrors.NewConfigurationError(
			"unsupported gateway",
			gateway.String())
	}

	return cfg, nil
}

func (c *BkashConfig) validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.AppKey == "" {
		missing = append(missing, "app_key")
	}
	if c.AppSecret == "" {
		missing = append(missing, "app_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *NagadConfig) validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if c.MerchantID == "" {
		missing = append(missing, "merchant_id")
	}
	if c.MerchantPrivateKey == "" {
		missing = append(missing, "merchant_private_key")
	}
	if c.NagadPublicKey == "" {
		missing = append(missing, "nagad_public_key")
	}
	if c.APIVersion == "" {
		missing = append(missing, "api_version")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
