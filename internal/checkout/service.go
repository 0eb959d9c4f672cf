package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/internal/cart"
	"github.com/nexus-market/nexus-backend/internal/pricing"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	"github.com/nexus-market/nexus-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartReader interface {
	Get(ctx context.Context, buyerID uuid.UUID, methodID string) (*cart.View, error)
}

type ordersRepository interface {
	Create(ctx context.Context, order *models.Order) error
}

type keysRepository interface {
	AllocateAvailable(ctx context.Context, offerID uuid.UUID, qty int) ([]models.LicenseKey, error)
	MarkSold(ctx context.Context, keyIDs []uuid.UUID, orderItemID, buyerID uuid.UUID) error
}

type offersRepository interface {
	DecrementOfferStock(ctx context.Context, offerID uuid.UUID, qty int) error
}

type cartStore interface {
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	SetPromo(ctx context.Context, cartID uuid.UUID, code *string) error
}

// Input is what the buyer submits to place an order.
type Input struct {
	MethodID string
	Email    string
}

// Service executes checkouts: quote, charge, then allocate keys and record
// the order in a single transaction.
type Service interface {
	Execute(ctx context.Context, buyerID uuid.UUID, input Input) (*models.Order, error)
}

// ServiceParams wires the checkout service. The WithTx funcs rebind
// repositories to the order transaction.
type ServiceParams struct {
	Tx           txRunner
	Cart         cartReader
	Engine       *pricing.Engine
	Processor    Processor
	Metrics      *metrics.StorefrontMetrics
	OrdersWithTx func(tx *gorm.DB) ordersRepository
	KeysWithTx   func(tx *gorm.DB) keysRepository
	OffersWithTx func(tx *gorm.DB) offersRepository
	CartWithTx   func(tx *gorm.DB) cartStore
}

type service struct {
	tx           txRunner
	cart         cartReader
	engine       *pricing.Engine
	processor    Processor
	metrics      *metrics.StorefrontMetrics
	ordersWithTx func(tx *gorm.DB) ordersRepository
	keysWithTx   func(tx *gorm.DB) keysRepository
	offersWithTx func(tx *gorm.DB) offersRepository
	cartWithTx   func(tx *gorm.DB) cartStore
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if params.Processor == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if params.OrdersWithTx == nil || params.KeysWithTx == nil || params.OffersWithTx == nil || params.CartWithTx == nil {
		return nil, fmt.Errorf("tx binders required")
	}
	return &service{
		tx:           params.Tx,
		cart:         params.Cart,
		engine:       params.Engine,
		processor:    params.Processor,
		metrics:      params.Metrics,
		ordersWithTx: params.OrdersWithTx,
		keysWithTx:   params.KeysWithTx,
		offersWithTx: params.OffersWithTx,
		cartWithTx:   params.CartWithTx,
	}, nil
}

// Execute charges the buyer for their current cart and, once the charge
// clears, commits the order, the sold keys, and the emptied cart atomically.
// A failed charge commits nothing.
func (s *service) Execute(ctx context.Context, buyerID uuid.UUID, input Input) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer identity missing")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required for delivery")
	}
	method, ok := s.engine.LookupMethod(input.MethodID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.MethodID))
	}

	view, err := s.cart.Get(ctx, buyerID, method.ID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	start := time.Now()
	err = s.processor.Charge(ctx, ChargeInput{
		BuyerID:  buyerID,
		MethodID: method.ID,
		Amount:   view.Summary.Total,
		Email:    email,
	})
	s.metrics.ObserveCheckout(method.ID, time.Since(start))
	if err != nil {
		s.metrics.IncOrder(string(enums.OrderStatusFailed))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment failed")
	}

	order := buildOrder(buyerID, email, method, view)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ordersWithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order")
		}

		keys := s.keysWithTx(tx)
		offers := s.offersWithTx(tx)
		for _, item := range order.Items {
			allocated, err := keys.AllocateAvailable(ctx, item.OfferID, item.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate keys")
			}
			if len(allocated) < item.Qty {
				return pkgerrors.New(pkgerrors.CodeConflict, "an item in your cart just sold out")
			}
			keyIDs := make([]uuid.UUID, len(allocated))
			for i, key := range allocated {
				keyIDs[i] = key.ID
			}
			if err := keys.MarkSold(ctx, keyIDs, item.ID, buyerID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach keys")
			}
			if err := offers.DecrementOfferStock(ctx, item.OfferID, item.Qty); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeConflict, "an item in your cart just sold out")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}

		carts := s.cartWithTx(tx)
		if err := carts.DeleteItems(ctx, view.CartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty cart")
		}
		if err := carts.SetPromo(ctx, view.CartID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear promo")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrder(string(enums.OrderStatusPaid))
	return order, nil
}

func buildOrder(buyerID uuid.UUID, email string, method pricing.Method, view *cart.View) *models.Order {
	order := &models.Order{
		Reference:          NewReference(),
		BuyerID:            buyerID,
		Status:             enums.OrderStatusPaid,
		FulfillmentStage:   enums.FulfillmentStageReceived,
		PaymentMethod:      method.Kind,
		PromoCode:          view.PromoCode,
		Subtotal:           view.Summary.Subtotal,
		DiscountAmount:     view.Summary.DiscountAmount,
		DiscountedSubtotal: view.Summary.DiscountedSubtotal,
		FeeAmount:          view.Summary.FeeAmount,
		Total:              view.Summary.Total,
		Email:              email,
	}
	for _, item := range view.Items {
		order.Items = append(order.Items, models.OrderItem{
			OfferID:      item.OfferID,
			ProductTitle: item.ProductTitle,
			Platform:     item.Platform,
			UnitPrice:    item.UnitPrice,
			Qty:          item.Qty,
			LineTotal:    item.UnitPrice * item.Qty,
		})
	}
	return order
}

// NewReference mints a human-readable order reference like NXS-3F9A2C.
func NewReference() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		return fmt.Sprintf("NXS-%06X", time.Now().UnixNano()%0xFFFFFF)
	}
	return "NXS-" + strings.ToUpper(hex.EncodeToString(buf))
}
