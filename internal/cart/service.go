package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/internal/pricing"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

type cartRepository interface {
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	EnsureForBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	UpsertItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQty(ctx context.Context, cartID, offerID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, cartID, offerID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	SetPromo(ctx context.Context, cartID uuid.UUID, code *string) error
}

type offersRepository interface {
	FindOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
}

// View is the buyer's cart plus its live quote. The quote is recomputed on
// every read from the stored snapshots, never persisted.
type View struct {
	CartID    uuid.UUID
	Items     []models.CartItem
	PromoCode *string
	Summary   pricing.Summary
}

// Service owns the buyer's server-side cart.
type Service interface {
	Get(ctx context.Context, buyerID uuid.UUID, methodID string) (*View, error)
	AddItem(ctx context.Context, buyerID, offerID uuid.UUID, qty int) (*View, error)
	DecreaseItem(ctx context.Context, buyerID, offerID uuid.UUID) (*View, error)
	RemoveItem(ctx context.Context, buyerID, offerID uuid.UUID) (*View, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
	ApplyPromo(ctx context.Context, buyerID uuid.UUID, code string) (*View, error)
	RemovePromo(ctx context.Context, buyerID uuid.UUID) (*View, error)
}

// ServiceParams wires the cart service dependencies.
type ServiceParams struct {
	Repo            cartRepository
	Offers          offersRepository
	Engine          *pricing.Engine
	DefaultMethodID string
}

type service struct {
	repo            cartRepository
	offers          offersRepository
	engine          *pricing.Engine
	defaultMethodID string
}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if params.DefaultMethodID == "" {
		return nil, fmt.Errorf("default payment method id required")
	}
	return &service{
		repo:            params.Repo,
		offers:          params.Offers,
		engine:          params.Engine,
		defaultMethodID: params.DefaultMethodID,
	}, nil
}

func (s *service) Get(ctx context.Context, buyerID uuid.UUID, methodID string) (*View, error) {
	if methodID != "" {
		if _, ok := s.engine.LookupMethod(methodID); !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", methodID))
		}
	}
	cart, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.viewOf(cart, methodID)
}

func (s *service) AddItem(ctx context.Context, buyerID, offerID uuid.UUID, qty int) (*View, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if offerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	cart, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	offer, err := s.offers.FindOfferByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup offer")
	}

	newQty := qty
	for _, item := range cart.Items {
		if item.OfferID == offerID {
			newQty += item.Qty
		}
	}
	if newQty > offer.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "not enough keys in stock for this offer")
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		OfferID:   offer.ID,
		UnitPrice: offer.Price,
		Qty:       newQty,
	}
	if offer.Product != nil {
		item.ProductTitle = offer.Product.Title
		item.Platform = offer.Product.Platform
	}
	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}

	return s.reload(ctx, buyerID)
}

func (s *service) DecreaseItem(ctx context.Context, buyerID, offerID uuid.UUID) (*View, error) {
	cart, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	var current *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].OfferID == offerID {
			current = &cart.Items[i]
			break
		}
	}
	if current == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer is not in the cart")
	}

	if current.Qty <= 1 {
		err = s.repo.DeleteItem(ctx, cart.ID, offerID)
	} else {
		err = s.repo.UpdateItemQty(ctx, cart.ID, offerID, current.Qty-1)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}

	return s.reload(ctx, buyerID)
}

func (s *service) RemoveItem(ctx context.Context, buyerID, offerID uuid.UUID) (*View, error) {
	cart, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, offerID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.reload(ctx, buyerID)
}

func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	cart, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	if err := s.repo.SetPromo(ctx, cart.ID, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear promo")
	}
	return nil
}

// ApplyPromo validates the code against the pricing registry before storing
// it. An unknown code leaves the stored promo untouched.
func (s *service) ApplyPromo(ctx context.Context, buyerID uuid.UUID, code string) (*View, error) {
	normalized := pricing.NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}
	cart, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	rule, ok := s.engine.LookupPromo(normalized)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("promo code %q is not valid", normalized))
	}

	if err := s.repo.SetPromo(ctx, cart.ID, &rule.Code); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply promo")
	}
	return s.reload(ctx, buyerID)
}

func (s *service) RemovePromo(ctx context.Context, buyerID uuid.UUID) (*View, error) {
	cart, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPromo(ctx, cart.ID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove promo")
	}
	return s.reload(ctx, buyerID)
}

func (s *service) loadCart(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer identity missing")
	}
	cart, err := s.repo.EnsureForBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, buyerID uuid.UUID) (*View, error) {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return s.viewOf(cart, "")
}

func (s *service) viewOf(cart *models.CartRecord, methodID string) (*View, error) {
	if methodID == "" {
		methodID = s.defaultMethodID
	}

	lines := make([]pricing.LineItem, len(cart.Items))
	for i, item := range cart.Items {
		lines[i] = pricing.LineItem{
			OfferID:   item.OfferID,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
		}
	}
	promo := ""
	if cart.PromoCode != nil {
		promo = *cart.PromoCode
	}

	summary, err := s.engine.Quote(lines, promo, methodID)
	if err != nil {
		var invalid *pricing.InvalidPromoError
		if errors.As(err, &invalid) {
			// Stored code no longer exists in the registry; quote without it.
			summary, err = s.engine.Quote(lines, "", methodID)
		}
		if err != nil {
			return nil, err
		}
	}

	return &View{
		CartID:    cart.ID,
		Items:     cart.Items,
		PromoCode: cart.PromoCode,
		Summary:   summary,
	}, nil
}
