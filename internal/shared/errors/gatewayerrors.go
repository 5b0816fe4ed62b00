package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Payment-gateway-specific error types
const (
	ErrorTypeConfiguration  ErrorType = "gateway_configuration"
	ErrorTypeGatewayAuth    ErrorType = "gateway_auth"
	ErrorTypeHandshake      ErrorType = "gateway_handshake"
	ErrorTypePaymentCreate  ErrorType = "payment_create"
	ErrorTypePaymentExecute ErrorType = "payment_execute"
	ErrorTypeVerification   ErrorType = "payment_verification"
	ErrorTypeAmountMismatch ErrorType = "amount_mismatch"
)

// GatewayError represents payment-gateway errors with settlement context.
// Every provider-facing failure is converted to one of these at the adapter
// boundary; raw provider errors never cross into the application layer.
type GatewayError struct {
	*AppError
	// Retryable indicates the caller may safely retry the same operation
	Retryable bool
	// SecurityEvent indicates the failure should be tracked distinctly
	// (e.g. a signature that fails verification)
	SecurityEvent bool
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *GatewayError) Unwrap() error {
	return e.AppError
}

// NewConfigurationError creates an error for a store whose gateway is
// disabled or misconfigured. Merchant-visible only, never retryable.
func NewConfigurationError(message string, details ...string) *GatewayError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &GatewayError{
		AppError: &AppError{
			Type:    ErrorTypeConfiguration,
			Message: message,
			Code:    http.StatusUnprocessableEntity,
			Details: detail,
		},
		Retryable:     false,
		SecurityEvent: false,
	}
}

// NewGatewayAuthError creates an error for a failed token grant.
// Retryable by the caller; carries the provider's status message.
func NewGatewayAuthError(providerMessage string) *GatewayError {
	return &GatewayError{
		AppError: &AppError{
			Type:    ErrorTypeGatewayAuth,
			Message: "gateway authentication failed",
			Code:    http.StatusBadGateway,
			Details: providerMessage,
		},
		Retryable:     true,
		SecurityEvent: false,
	}
}

// NewHandshakeError creates an error for a signature or decryption failure
// on an encrypted gateway response. Not retryable and security-relevant.
func NewHandshakeError(stage string, details ...string) *GatewayError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &GatewayError{
		AppError: &AppError{
			Type:    ErrorTypeHandshake,
			Message: fmt.Sprintf("gateway handshake failed at %s", stage),
			Code:    http.StatusBadGateway,
			Details: detail,
		},
		Retryable:     false,
		SecurityEvent: true,
	}
}

// NewPaymentCreateError creates an error for a rejected payment creation
func NewPaymentCreateError(providerMessage string) *GatewayError {
	return &GatewayError{
		AppError: &AppError{
			Type:    ErrorTypePaymentCreate,
			Message: "payment creation rejected by gateway",
			Code:    http.StatusBadGateway,
			Details: providerMessage,
		},
		Retryable:     false,
		SecurityEvent: false,
	}
}

// NewPaymentExecuteError creates an error for a failed payment execution
func NewPaymentExecuteError(providerMessage string) *GatewayError {
	return &GatewayError{
		AppError: &AppError{
			Type:    ErrorTypePaymentExecute,
			Message: "payment execution rejected by gateway",
			Code:    http.StatusBadGateway,
			Details: providerMessage,
		},
		Retryable:     false,
		SecurityEvent: false,
	}
}

// NewVerificationError creates an error for a failed payment verification
func NewVerificationError(providerMessage string) *GatewayError {
	return &GatewayError{
		AppError: &AppError{
			Type:    ErrorTypeVerification,
			Message: "payment verification rejected by gateway",
			Code:    http.StatusBadGateway,
			Details: providerMessage,
		},
		Retryable:     false,
		SecurityEvent: false,
	}
}

// NewAmountMismatchError creates an error for a settlement amount that
// disagrees with the order's charged total. Never silently accepted.
func NewAmountMismatchError(expected, got int64) *GatewayError {
	return &GatewayError{
		AppError: &AppError{
			Type:    ErrorTypeAmountMismatch,
			Message: "settled amount does not match order total",
			Code:    http.StatusConflict,
			Details: fmt.Sprintf("expected %d, gateway reported %d", expected, got),
		},
		Retryable:     false,
		SecurityEvent: true,
	}
}

// IsGatewayError checks if the error is a GatewayError (supports wrapped errors)
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return stderrors.As(err, &gwErr)
}

// GetGatewayError extracts GatewayError from error chain
func GetGatewayError(err error) *GatewayError {
	var gwErr *GatewayError
	if stderrors.As(err, &gwErr) {
		return gwErr
	}
	return nil
}

// IsConfigurationError checks if the error is a gateway configuration error
func IsConfigurationError(err error) bool {
	gwErr := GetGatewayError(err)
	return gwErr != nil && gwErr.Type == ErrorTypeConfiguration
}

// IsAmountMismatchError checks if the error is an amount mismatch error
func IsAmountMismatchError(err error) bool {
	gwErr := GetGatewayError(err)
	return gwErr != nil && gwErr.Type == ErrorTypeAmountMismatch
}

// IsHandshakeError checks if the error is a handshake error
func IsHandshakeError(err error) bool {
	gwErr := GetGatewayError(err)
	return gwErr != nil && gwErr.Type == ErrorTypeHandshake
}

// IsRetryableGatewayError returns true if the caller may retry the operation
func IsRetryableGatewayError(err error) bool {
	gwErr := GetGatewayError(err)
	return gwErr != nil && gwErr.Retryable
}

// IsSecurityEvent returns true if the error should be tracked as a security event
func IsSecurityEvent(err error) bool {
	gwErr := GetGatewayError(err)
	return gwErr != nil && gwErr.SecurityEvent
}
