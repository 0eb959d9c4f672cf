package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nexus-market/nexus-backend/pkg/enums"
)

// PromoRule describes a single promo code: either a percentage of the
// subtotal or a fixed XOF amount.
type PromoRule struct {
	Code  string
	Kind  enums.PromoKind
	Value int
}

// Method describes a selectable payment method and its processing fee.
type Method struct {
	ID         string
	Kind       enums.PaymentMethodKind
	Label      string
	FeePercent decimal.Decimal
}

// PromoRegistry resolves promo codes case-insensitively. Codes are
// normalized with trim + uppercase at both registration and lookup time.
type PromoRegistry struct {
	rules map[string]PromoRule
}

// NewPromoRegistry builds a registry from the provided rules.
func NewPromoRegistry(rules ...PromoRule) (*PromoRegistry, error) {
	reg := &PromoRegistry{rules: make(map[string]PromoRule, len(rules))}
	for _, rule := range rules {
		code := NormalizeCode(rule.Code)
		if code == "" {
			return nil, fmt.Errorf("promo code cannot be empty")
		}
		if !rule.Kind.IsValid() {
			return nil, fmt.Errorf("promo %q has invalid kind %q", code, rule.Kind)
		}
		if rule.Value <= 0 {
			return nil, fmt.Errorf("promo %q must have a positive value", code)
		}
		if rule.Kind == enums.PromoKindPercent && rule.Value > 100 {
			return nil, fmt.Errorf("promo %q percent value exceeds 100", code)
		}
		if _, exists := reg.rules[code]; exists {
			return nil, fmt.Errorf("duplicate promo code %q", code)
		}
		rule.Code = code
		reg.rules[code] = rule
	}
	return reg, nil
}

// Lookup resolves a raw user-supplied code to a rule.
func (r *PromoRegistry) Lookup(raw string) (PromoRule, bool) {
	rule, ok := r.rules[NormalizeCode(raw)]
	return rule, ok
}

// NormalizeCode applies the canonical promo code normalization.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// MethodRegistry resolves payment method ids.
type MethodRegistry struct {
	methods map[string]Method
}

// NewMethodRegistry builds a registry from the provided methods.
func NewMethodRegistry(methods ...Method) (*MethodRegistry, error) {
	reg := &MethodRegistry{methods: make(map[string]Method, len(methods))}
	for _, method := range methods {
		id := strings.TrimSpace(method.ID)
		if id == "" {
			return nil, fmt.Errorf("payment method id cannot be empty")
		}
		if !method.Kind.IsValid() {
			return nil, fmt.Errorf("payment method %q has invalid kind %q", id, method.Kind)
		}
		if method.FeePercent.IsNegative() || method.FeePercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("payment method %q fee percent out of range", id)
		}
		if _, exists := reg.methods[id]; exists {
			return nil, fmt.Errorf("duplicate payment method %q", id)
		}
		method.ID = id
		reg.methods[id] = method
	}
	return reg, nil
}

// Lookup resolves a method id.
func (r *MethodRegistry) Lookup(id string) (Method, bool) {
	method, ok := r.methods[strings.TrimSpace(id)]
	return method, ok
}

// All returns every registered method, for listing endpoints.
func (r *MethodRegistry) All() []Method {
	out := make([]Method, 0, len(r.methods))
	for _, method := range r.methods {
		out = append(out, method)
	}
	return out
}

// DefaultPromoRegistry returns the storefront's built-in promo codes.
func DefaultPromoRegistry() *PromoRegistry {
	reg, err := NewPromoRegistry(
		PromoRule{Code: "NEXUS10", Kind: enums.PromoKindPercent, Value: 10},
		PromoRule{Code: "WELCOME", Kind: enums.PromoKindFixed, Value: 500},
	)
	if err != nil {
		panic(err)
	}
	return reg
}

// DefaultMethodRegistry returns the storefront's built-in payment methods.
func DefaultMethodRegistry() *MethodRegistry {
	reg, err := NewMethodRegistry(
		Method{ID: "cinetpay", Kind: enums.PaymentMethodMobileMoney, Label: "Mobile Money (CinetPay)", FeePercent: decimal.NewFromFloat(6.5)},
		Method{ID: "cards", Kind: enums.PaymentMethodCard, Label: "Carte bancaire", FeePercent: decimal.NewFromFloat(4.0)},
		Method{ID: "crypto", Kind: enums.PaymentMethodCrypto, Label: "Crypto", FeePercent: decimal.NewFromFloat(4.0)},
		Method{ID: "binance", Kind: enums.PaymentMethodWallet, Label: "Binance Pay", FeePercent: decimal.NewFromFloat(4.0)},
	)
	if err != nil {
		panic(err)
	}
	return reg
}
