package pricing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultPromoRegistry(), DefaultMethodRegistry())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func items(pairs ...int) []LineItem {
	out := make([]LineItem, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, LineItem{OfferID: uuid.New(), UnitPrice: pairs[i], Qty: pairs[i+1]})
	}
	return out
}

func TestQuotePercentPromoWithMobileMoneyFee(t *testing.T) {
	engine := newTestEngine(t)

	summary, err := engine.Quote(items(25000, 2), "NEXUS10", "cinetpay")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	if summary.Subtotal != 50000 {
		t.Fatalf("expected subtotal 50000, got %d", summary.Subtotal)
	}
	if summary.DiscountAmount != 5000 {
		t.Fatalf("expected discount 5000, got %d", summary.DiscountAmount)
	}
	if summary.DiscountedSubtotal != 45000 {
		t.Fatalf("expected discounted subtotal 45000, got %d", summary.DiscountedSubtotal)
	}
	if summary.FeeAmount != 2925 {
		t.Fatalf("expected fee 2925, got %d", summary.FeeAmount)
	}
	if summary.Total != 47925 {
		t.Fatalf("expected total 47925, got %d", summary.Total)
	}
}

func TestQuoteFixedPromoWithCardFee(t *testing.T) {
	engine := newTestEngine(t)

	summary, err := engine.Quote(items(10000, 1), "welcome", "cards")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	if summary.DiscountAmount != 500 {
		t.Fatalf("expected discount 500, got %d", summary.DiscountAmount)
	}
	if summary.DiscountedSubtotal != 9500 {
		t.Fatalf("expected discounted subtotal 9500, got %d", summary.DiscountedSubtotal)
	}
	if summary.FeeAmount != 380 {
		t.Fatalf("expected fee 380, got %d", summary.FeeAmount)
	}
	if summary.Total != 9880 {
		t.Fatalf("expected total 9880, got %d", summary.Total)
	}
	if summary.PromoCode != "WELCOME" {
		t.Fatalf("expected normalized promo code WELCOME, got %q", summary.PromoCode)
	}
}

func TestQuoteUnknownPromoReturnsInvalidPromo(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Quote(items(10000, 1), "FOOBAR", "cards")
	if err == nil {
		t.Fatal("expected invalid promo error")
	}
	var invalid *InvalidPromoError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidPromoError, got %v", err)
	}
	if invalid.Code != "FOOBAR" {
		t.Fatalf("expected attempted code FOOBAR, got %q", invalid.Code)
	}

	// The rejection must not disturb a clean quote for the same cart.
	summary, err := engine.Quote(items(10000, 1), "", "cards")
	if err != nil {
		t.Fatalf("quote without promo: %v", err)
	}
	if summary.DiscountAmount != 0 || summary.Total != 10400 {
		t.Fatalf("expected untouched totals, got %+v", summary)
	}
}

func TestQuoteFixedPromoNeverExceedsSubtotal(t *testing.T) {
	engine := newTestEngine(t)

	summary, err := engine.Quote(items(300, 1), "WELCOME", "crypto")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if summary.DiscountAmount != 300 {
		t.Fatalf("expected discount clamped to 300, got %d", summary.DiscountAmount)
	}
	if summary.DiscountedSubtotal != 0 {
		t.Fatalf("expected discounted subtotal 0, got %d", summary.DiscountedSubtotal)
	}
	if summary.Total != 0 {
		t.Fatalf("expected total 0, got %d", summary.Total)
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	cart := items(1999, 3, 4500, 1)

	first, err := engine.Quote(cart, "NEXUS10", "binance")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.Quote(cart, "NEXUS10", "binance")
		if err != nil {
			t.Fatalf("repeat quote: %v", err)
		}
		if again != first {
			t.Fatalf("expected identical summaries, got %+v then %+v", first, again)
		}
	}
}

func TestQuoteEmptyCartYieldsZeroSummary(t *testing.T) {
	engine := newTestEngine(t)

	summary, err := engine.Quote(nil, "", "cinetpay")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if summary.Subtotal != 0 || summary.Total != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestQuoteUnknownMethodIsInternal(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Quote(items(1000, 1), "", "paypal")
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestQuoteRejectsNonPositiveQty(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Quote([]LineItem{{OfferID: uuid.New(), UnitPrice: 100, Qty: 0}}, "", "cards")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuoteHalfUpRounding(t *testing.T) {
	promos, err := NewPromoRegistry(PromoRule{Code: "HALF", Kind: enums.PromoKindPercent, Value: 50})
	if err != nil {
		t.Fatalf("promo registry: %v", err)
	}
	methods, err := NewMethodRegistry(Method{ID: "flat", Kind: enums.PaymentMethodCard, Label: "Flat", FeePercent: decimal.NewFromFloat(5)})
	if err != nil {
		t.Fatalf("method registry: %v", err)
	}
	engine, err := NewEngine(promos, methods)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	// 50% of 25 = 12.5 which rounds up to 13; 5% of 12 = 0.6 rounds to 1.
	summary, err := engine.Quote(items(25, 1), "HALF", "flat")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if summary.DiscountAmount != 13 {
		t.Fatalf("expected discount 13, got %d", summary.DiscountAmount)
	}
	if summary.DiscountedSubtotal != 12 {
		t.Fatalf("expected discounted subtotal 12, got %d", summary.DiscountedSubtotal)
	}
	if summary.FeeAmount != 1 {
		t.Fatalf("expected fee 1, got %d", summary.FeeAmount)
	}
	if summary.Total != 13 {
		t.Fatalf("expected total 13, got %d", summary.Total)
	}
}
