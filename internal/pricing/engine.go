package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

// LineItem is an immutable price snapshot taken when the offer entered the cart.
type LineItem struct {
	OfferID   uuid.UUID
	UnitPrice int
	Qty       int
}

// Summary is the full price breakdown for a cart. It is derived, never
// stored: identical inputs always produce an identical Summary.
type Summary struct {
	Subtotal           int
	DiscountAmount     int
	DiscountedSubtotal int
	FeeAmount          int
	Total              int
	PromoCode          string
	MethodID           string
}

// InvalidPromoError reports an unknown promo code along with the attempted
// input so callers can echo it back to the user.
type InvalidPromoError struct {
	Code string
}

func (e *InvalidPromoError) Error() string {
	return fmt.Sprintf("unknown promo code %q", e.Code)
}

// Engine computes checkout quotes from injectable promo and payment-method
// registries. It carries no mutable state.
type Engine struct {
	promos  *PromoRegistry
	methods *MethodRegistry
}

// NewEngine builds a pricing engine from the provided registries.
func NewEngine(promos *PromoRegistry, methods *MethodRegistry) (*Engine, error) {
	if promos == nil {
		return nil, fmt.Errorf("promo registry required")
	}
	if methods == nil {
		return nil, fmt.Errorf("method registry required")
	}
	return &Engine{promos: promos, methods: methods}, nil
}

// Methods exposes the payment methods the engine quotes against.
func (e *Engine) Methods() []Method {
	return e.methods.All()
}

// LookupPromo resolves a raw promo code against the engine's registry.
func (e *Engine) LookupPromo(raw string) (PromoRule, bool) {
	return e.promos.Lookup(raw)
}

// LookupMethod resolves a payment method id against the engine's registry.
func (e *Engine) LookupMethod(id string) (Method, bool) {
	return e.methods.Lookup(id)
}

// Quote prices a cart: subtotal, promo discount, payment fee, total.
//
// All intermediate percent computations round half-up to whole XOF units.
// An empty item slice yields a valid zero summary; refusing checkout on an
// empty cart is the caller's precondition, not the engine's.
func (e *Engine) Quote(items []LineItem, promoCode, methodID string) (Summary, error) {
	method, ok := e.methods.Lookup(methodID)
	if !ok {
		// The UI only ever offers registry ids, so this is a programmer error.
		return Summary{}, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown payment method %q", methodID))
	}

	subtotal := 0
	for _, item := range items {
		if item.Qty <= 0 {
			return Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "line item unit price cannot be negative")
		}
		subtotal += item.UnitPrice * item.Qty
	}

	summary := Summary{
		Subtotal: subtotal,
		MethodID: method.ID,
	}

	if normalized := NormalizeCode(promoCode); normalized != "" {
		rule, found := e.promos.Lookup(normalized)
		if !found {
			return Summary{}, &InvalidPromoError{Code: normalized}
		}
		summary.PromoCode = rule.Code
		summary.DiscountAmount = discountFor(rule, subtotal)
	}

	summary.DiscountedSubtotal = subtotal - summary.DiscountAmount
	if summary.DiscountedSubtotal < 0 {
		summary.DiscountedSubtotal = 0
	}

	summary.FeeAmount = roundHalfUp(decimal.NewFromInt(int64(summary.DiscountedSubtotal)).Mul(method.FeePercent).Div(decimal.NewFromInt(100)))
	summary.Total = summary.DiscountedSubtotal + summary.FeeAmount

	return summary, nil
}

func discountFor(rule PromoRule, subtotal int) int {
	switch rule.Kind {
	case enums.PromoKindPercent:
		return roundHalfUp(decimal.NewFromInt(int64(subtotal)).Mul(decimal.NewFromInt(int64(rule.Value))).Div(decimal.NewFromInt(100)))
	case enums.PromoKindFixed:
		if rule.Value > subtotal {
			return subtotal
		}
		return rule.Value
	default:
		return 0
	}
}

// roundHalfUp rounds to the nearest whole unit with .5 rounding away from
// zero; amounts here are never negative so that matches round-half-up.
func roundHalfUp(d decimal.Decimal) int {
	return int(d.Round(0).IntPart())
}
