package disclosure

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexus-market/nexus-backend/internal/repo"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
)

// Repo persists the one-way reveal memory. Rows are only ever inserted.
type Repo struct {
	base repo.Base
}

// NewRepo constructs the reveal repository.
func NewRepo(db *gorm.DB) (*Repo, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &Repo{base: repo.NewBase(db)}, nil
}

// ListRevealedItemIDs returns the order item ids the buyer has already revealed.
func (r *Repo) ListRevealedItemIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.base.DB(ctx).
		Model(&models.KeyReveal{}).
		Where("buyer_id = ?", buyerID).
		Pluck("order_item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveReveal records a reveal. Re-inserting the same item is a no-op so a
// racing double confirm cannot fail or duplicate anything.
func (r *Repo) SaveReveal(ctx context.Context, reveal *models.KeyReveal) error {
	return r.base.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reveal).Error
}
