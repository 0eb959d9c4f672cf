package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexus-market/nexus-backend/internal/repo"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
)

// Repository persists carts and their line items.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &Repository{base: repo.NewBase(db)}, nil
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithConn(tx)}
}

// FindByBuyer loads the buyer's cart with its items, oldest item first.
func (r *Repository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("buyer_id = ?", buyerID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// EnsureForBuyer returns the buyer's cart, creating an empty one on first use.
// The unique buyer index makes the create race-safe.
func (r *Repository) EnsureForBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	cart := models.CartRecord{BuyerID: buyerID}
	err := r.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "buyer_id"}},
			DoNothing: true,
		}).
		Create(&cart).Error
	if err != nil {
		return nil, err
	}
	return r.FindByBuyer(ctx, buyerID)
}

// UpsertItem inserts a line item or replaces the quantity of an existing one.
func (r *Repository) UpsertItem(ctx context.Context, item *models.CartItem) error {
	return r.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "offer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"qty", "updated_at"}),
		}).
		Create(item).Error
}

// UpdateItemQty sets a line's quantity.
func (r *Repository) UpdateItemQty(ctx context.Context, cartID, offerID uuid.UUID, qty int) error {
	return r.base.DB(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND offer_id = ?", cartID, offerID).
		Update("qty", qty).Error
}

// DeleteItem removes one line from the cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, offerID uuid.UUID) error {
	return r.base.DB(ctx).
		Where("cart_id = ? AND offer_id = ?", cartID, offerID).
		Delete(&models.CartItem{}).Error
}

// DeleteItems empties the cart's lines.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.base.DB(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// SetPromo stores or clears the cart's applied promo code.
func (r *Repository) SetPromo(ctx context.Context, cartID uuid.UUID, code *string) error {
	return r.base.DB(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Update("promo_code", code).Error
}
