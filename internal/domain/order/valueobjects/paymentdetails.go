package valueobjects

import "time"

// PaymentDetails is the structured settlement record written exactly once
// when an order transitions to paid.
type PaymentDetails struct {
	Method            string    `json:"method"`
	TransactionID     string    `json:"transaction_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	Amount            int64     `json:"amount"`
	PaidAt            time.Time `json:"paid_at"`
}

func (d PaymentDetails) IsZero() bool {
	return d.TransactionID == "" && d.ProviderPaymentID == ""
}
