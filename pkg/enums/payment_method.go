package enums

import "fmt"

// PaymentMethodKind groups the checkout payment options a buyer can select.
type PaymentMethodKind string

const (
	PaymentMethodMobileMoney PaymentMethodKind = "mobile_money"
	PaymentMethodCard        PaymentMethodKind = "card"
	PaymentMethodCrypto      PaymentMethodKind = "crypto"
	PaymentMethodWallet      PaymentMethodKind = "wallet"
)

var validPaymentMethodKinds = []PaymentMethodKind{
	PaymentMethodMobileMoney,
	PaymentMethodCard,
	PaymentMethodCrypto,
	PaymentMethodWallet,
}

// String implements fmt.Stringer.
func (p PaymentMethodKind) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethodKind.
func (p PaymentMethodKind) IsValid() bool {
	for _, candidate := range validPaymentMethodKinds {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodKind converts raw input into a PaymentMethodKind.
func ParsePaymentMethodKind(value string) (PaymentMethodKind, error) {
	for _, candidate := range validPaymentMethodKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method kind %q", value)
}
