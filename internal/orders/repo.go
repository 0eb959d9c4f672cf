package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/internal/repo"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgpagination "github.com/nexus-market/nexus-backend/pkg/pagination"
)

// Repository persists orders and their line items.
type Repository struct {
	base repo.Base
}

// NewRepository constructs an order repository bound to the provided DB.
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

// ListQuery captures buyer order listing filters.
type ListQuery struct {
	BuyerID uuid.UUID
	Limit   int
	Cursor  *pkgpagination.Cursor
}

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Create(order).Error
}

// FindForBuyer loads an order only when it belongs to the buyer.
func (r *Repository) FindForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Where("id = ? AND buyer_id = ?", orderID, buyerID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListItems returns the order's lines, oldest first.
func (r *Repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListForBuyer pages a buyer's orders newest first with a keyset cursor.
func (r *Repository) ListForBuyer(ctx context.Context, query ListQuery) ([]models.Order, error) {
	db := r.base.DB(ctx).
		Where("buyer_id = ?", query.BuyerID).
		Order("created_at DESC, id DESC")
	if query.Cursor != nil {
		db = db.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	var rows []models.Order
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStage moves a paid order to the given fulfillment stage.
func (r *Repository) UpdateStage(ctx context.Context, orderID uuid.UUID, stage enums.FulfillmentStage) error {
	return r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("fulfillment_stage", stage).Error
}

// ListAdvanceable returns paid orders not yet ready whose stage has been
// stable longer than the cutoff, for the fulfillment cron.
func (r *Repository) ListAdvanceable(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.base.DB(ctx).
		Where("status = ? AND fulfillment_stage <> ? AND updated_at < ?",
			enums.OrderStatusPaid, enums.FulfillmentStageReady, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExpirePending flips stale pending orders to expired and reports the count.
func (r *Repository) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, olderThan).
		Update("status", enums.OrderStatusExpired)
	return result.RowsAffected, result.Error
}
