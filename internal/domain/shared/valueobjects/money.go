package valueobjects

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in the smallest currency unit (poisha for BDT).
type Money struct {
	amountInPoisha int64
	currency       string
}

func NewMoney(amountInPoisha int64, currency string) Money {
	if currency == "" {
		currency = "BDT"
	}
	return Money{
		amountInPoisha: amountInPoisha,
		currency:       currency,
	}
}

func (m Money) AmountInPoisha() int64 {
	return m.amountInPoisha
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) AmountInTaka() float64 {
	return float64(m.amountInPoisha) / 100.0
}

func (m Money) Equals(other Money) bool {
	return m.amountInPoisha == other.amountInPoisha && m.currency == other.currency
}

func (m Money) IsPositive() bool {
	return m.amountInPoisha > 0
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.AmountInTaka(), m.currency)
}

// TakaString formats the amount the way the gateways expect it on the
// wire: taka with two decimal places and no thousands separators.
func (m Money) TakaString() string {
	return fmt.Sprintf("%d.%02d", m.amountInPoisha/100, m.amountInPoisha%100)
}

// ParseTaka converts a provider-reported decimal amount string ("500",
// "500.0", "500.00") to poisha without going through floating point.
// Gateways echo amounts as strings; these are untrusted input and must
// be normalized before any comparison against an order total.
func ParseTaka(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}

	// Digits only in both parts; ParseInt alone would admit signs
	// ("+5", "1.+5").
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	taka, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	var poisha int64
	switch len(frac) {
	case 0:
		poisha = 0
	case 1:
		d, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		poisha = d * 10
	case 2:
		d, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		poisha = d
	default:
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}

	return taka*100 + poisha, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
