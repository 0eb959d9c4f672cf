package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/internal/cart"
	"github.com/nexus-market/nexus-backend/internal/pricing"
	"github.com/nexus-market/nexus-backend/pkg/config"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCart struct {
	view *cart.View
	err  error
}

func (s *stubCart) Get(ctx context.Context, buyerID uuid.UUID, methodID string) (*cart.View, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.view, nil
}

type stubOrders struct {
	created *models.Order
}

func (s *stubOrders) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	s.created = order
	return nil
}

type stubKeys struct {
	available map[uuid.UUID][]models.LicenseKey
	sold      []uuid.UUID
}

func (s *stubKeys) AllocateAvailable(ctx context.Context, offerID uuid.UUID, qty int) ([]models.LicenseKey, error) {
	keys := s.available[offerID]
	if len(keys) > qty {
		keys = keys[:qty]
	}
	return keys, nil
}

func (s *stubKeys) MarkSold(ctx context.Context, keyIDs []uuid.UUID, orderItemID, buyerID uuid.UUID) error {
	s.sold = append(s.sold, keyIDs...)
	return nil
}

type stubOffers struct {
	decremented map[uuid.UUID]int
	soldOut     bool
}

func (s *stubOffers) DecrementOfferStock(ctx context.Context, offerID uuid.UUID, qty int) error {
	if s.soldOut {
		return gorm.ErrRecordNotFound
	}
	if s.decremented == nil {
		s.decremented = make(map[uuid.UUID]int)
	}
	s.decremented[offerID] += qty
	return nil
}

type stubCartStore struct {
	cleared      bool
	promoCleared bool
}

func (s *stubCartStore) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	s.cleared = true
	return nil
}

func (s *stubCartStore) SetPromo(ctx context.Context, cartID uuid.UUID, code *string) error {
	s.promoCleared = code == nil
	return nil
}

type stubProcessor struct {
	err     error
	charges int
}

func (s *stubProcessor) Charge(ctx context.Context, input ChargeInput) error {
	s.charges++
	return s.err
}

type fixture struct {
	svc       Service
	orders    *stubOrders
	keys      *stubKeys
	offers    *stubOffers
	cartStore *stubCartStore
	processor *stubProcessor
}

func newFixture(t *testing.T, view *cart.View, keys *stubKeys, processor *stubProcessor) *fixture {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.DefaultPromoRegistry(), pricing.DefaultMethodRegistry())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	f := &fixture{
		orders:    &stubOrders{},
		keys:      keys,
		offers:    &stubOffers{},
		cartStore: &stubCartStore{},
		processor: processor,
	}
	f.svc, err = NewService(ServiceParams{
		Tx:           stubTx{},
		Cart:         &stubCart{view: view},
		Engine:       engine,
		Processor:    processor,
		OrdersWithTx: func(tx *gorm.DB) ordersRepository { return f.orders },
		KeysWithTx:   func(tx *gorm.DB) keysRepository { return f.keys },
		OffersWithTx: func(tx *gorm.DB) offersRepository { return f.offers },
		CartWithTx:   func(tx *gorm.DB) cartStore { return f.cartStore },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return f
}

func quotedView(t *testing.T, offerID uuid.UUID, unitPrice, qty int, promo string) *cart.View {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.DefaultPromoRegistry(), pricing.DefaultMethodRegistry())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	summary, err := engine.Quote([]pricing.LineItem{{OfferID: offerID, UnitPrice: unitPrice, Qty: qty}}, promo, "cinetpay")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	view := &cart.View{
		CartID: uuid.New(),
		Items: []models.CartItem{{
			ID:           uuid.New(),
			OfferID:      offerID,
			ProductTitle: "Elden Ring",
			UnitPrice:    unitPrice,
			Qty:          qty,
		}},
		Summary: summary,
	}
	if promo != "" {
		view.PromoCode = &summary.PromoCode
	}
	return view
}

func availableKeys(offerID uuid.UUID, n int) *stubKeys {
	keys := make([]models.LicenseKey, n)
	for i := range keys {
		keys[i] = models.LicenseKey{ID: uuid.New(), OfferID: offerID}
	}
	return &stubKeys{available: map[uuid.UUID][]models.LicenseKey{offerID: keys}}
}

func TestExecuteCommitsOrderKeysAndCart(t *testing.T) {
	offerID := uuid.New()
	view := quotedView(t, offerID, 25000, 2, "NEXUS10")
	f := newFixture(t, view, availableKeys(offerID, 3), &stubProcessor{})

	order, err := f.svc.Execute(context.Background(), uuid.New(), Input{MethodID: "cinetpay", Email: "buyer@example.com"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.HasPrefix(order.Reference, "NXS-") {
		t.Fatalf("unexpected reference %q", order.Reference)
	}
	// 50000 - 5000 promo = 45000, + 6.5% fee 2925 = 47925.
	if order.Total != 47925 {
		t.Fatalf("expected total 47925, got %d", order.Total)
	}
	if order.PromoCode == nil || *order.PromoCode != "NEXUS10" {
		t.Fatalf("expected promo snapshot, got %v", order.PromoCode)
	}
	if len(f.keys.sold) != 2 {
		t.Fatalf("expected 2 keys sold, got %d", len(f.keys.sold))
	}
	if f.offers.decremented[offerID] != 2 {
		t.Fatalf("expected stock decremented by 2, got %d", f.offers.decremented[offerID])
	}
	if !f.cartStore.cleared || !f.cartStore.promoCleared {
		t.Fatal("expected cart emptied and promo cleared")
	}
	if f.orders.created == nil || len(f.orders.created.Items) != 1 {
		t.Fatalf("order not recorded: %+v", f.orders.created)
	}
	if f.orders.created.Items[0].LineTotal != 50000 {
		t.Fatalf("expected line total 50000, got %d", f.orders.created.Items[0].LineTotal)
	}
}

func TestExecuteEmptyCartRejected(t *testing.T) {
	view := &cart.View{CartID: uuid.New()}
	f := newFixture(t, view, &stubKeys{}, &stubProcessor{})

	_, err := f.svc.Execute(context.Background(), uuid.New(), Input{MethodID: "cards", Email: "buyer@example.com"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.processor.charges != 0 {
		t.Fatal("charge must not run for an empty cart")
	}
}

func TestExecuteChargeFailureCommitsNothing(t *testing.T) {
	offerID := uuid.New()
	view := quotedView(t, offerID, 10000, 1, "")
	f := newFixture(t, view, availableKeys(offerID, 1), &stubProcessor{err: errors.New("card declined")})

	_, err := f.svc.Execute(context.Background(), uuid.New(), Input{MethodID: "cards", Email: "buyer@example.com"})
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if f.orders.created != nil {
		t.Fatal("order must not be recorded on charge failure")
	}
	if f.cartStore.cleared {
		t.Fatal("cart must survive a failed charge")
	}
}

func TestExecuteInsufficientKeysConflicts(t *testing.T) {
	offerID := uuid.New()
	view := quotedView(t, offerID, 10000, 2, "")
	f := newFixture(t, view, availableKeys(offerID, 1), &stubProcessor{})

	_, err := f.svc.Execute(context.Background(), uuid.New(), Input{MethodID: "crypto", Email: "buyer@example.com"})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestExecuteUnknownMethodRejected(t *testing.T) {
	f := newFixture(t, &cart.View{}, &stubKeys{}, &stubProcessor{})
	_, err := f.svc.Execute(context.Background(), uuid.New(), Input{MethodID: "paypal", Email: "buyer@example.com"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSimulatedProcessorHonorsFailureRate(t *testing.T) {
	always := NewSimulatedProcessor(config.PaymentsConfig{FailureRate: 1})
	if err := always.Charge(context.Background(), ChargeInput{Amount: 100}); err == nil {
		t.Fatal("expected every charge to fail at rate 1")
	}

	never := NewSimulatedProcessor(config.PaymentsConfig{FailureRate: 0})
	if err := never.Charge(context.Background(), ChargeInput{Amount: 100}); err != nil {
		t.Fatalf("expected success at rate 0, got %v", err)
	}
}

func TestSimulatedProcessorRespectsContext(t *testing.T) {
	processor := NewSimulatedProcessor(config.PaymentsConfig{SimulatedDelay: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := processor.Charge(ctx, ChargeInput{Amount: 100}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewReferenceFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ref := NewReference()
		if !strings.HasPrefix(ref, "NXS-") || len(ref) != 10 {
			t.Fatalf("bad reference %q", ref)
		}
		seen[ref] = true
	}
	if len(seen) < 45 {
		t.Fatalf("references barely vary: %d unique of 50", len(seen))
	}
}
