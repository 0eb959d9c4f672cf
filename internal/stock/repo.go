package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexus-market/nexus-backend/internal/repo"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
)

// Repository persists license keys.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a key repository bound to the provided DB.
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

// CreateKeys inserts the provided key rows in one statement.
func (r *Repository) CreateKeys(ctx context.Context, keys []models.LicenseKey) error {
	if len(keys) == 0 {
		return nil
	}
	return r.base.DB(ctx).Create(&keys).Error
}

// AllocateAvailable locks and returns up to qty available keys for the offer,
// oldest first. Locked rows are skipped so concurrent checkouts don't block.
func (r *Repository) AllocateAvailable(ctx context.Context, offerID uuid.UUID, qty int) ([]models.LicenseKey, error) {
	var keys []models.LicenseKey
	err := r.base.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("offer_id = ? AND status = ?", offerID, enums.KeyStatusAvailable).
		Order("created_at ASC").
		Limit(qty).
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// MarkSold attaches the keys to an order item and buyer and flips them to sold.
func (r *Repository) MarkSold(ctx context.Context, keyIDs []uuid.UUID, orderItemID, buyerID uuid.UUID) error {
	if len(keyIDs) == 0 {
		return nil
	}
	return r.base.DB(ctx).
		Model(&models.LicenseKey{}).
		Where("id IN ?", keyIDs).
		Updates(map[string]any{
			"status":        enums.KeyStatusSold,
			"order_item_id": orderItemID,
			"buyer_id":      buyerID,
		}).Error
}

// FindByOrderItemIDs returns the sold keys attached to the given order items.
func (r *Repository) FindByOrderItemIDs(ctx context.Context, itemIDs []uuid.UUID) ([]models.LicenseKey, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var keys []models.LicenseKey
	err := r.base.DB(ctx).
		Where("order_item_id IN ?", itemIDs).
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// CountByStatus tallies an offer's keys per status.
func (r *Repository) CountByStatus(ctx context.Context, offerID uuid.UUID) (map[enums.KeyStatus]int64, error) {
	type row struct {
		Status enums.KeyStatus
		Total  int64
	}
	var rows []row
	err := r.base.DB(ctx).
		Model(&models.LicenseKey{}).
		Select("status, COUNT(*) AS total").
		Where("offer_id = ?", offerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.KeyStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
