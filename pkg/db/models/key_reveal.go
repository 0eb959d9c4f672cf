package models

import (
	"time"

	"github.com/google/uuid"
)

// KeyReveal is the durable disclosure memory: one row per order item whose
// key the buyer has irreversibly revealed. Rows are only ever inserted,
// never updated or deleted, which is what makes Revealed a one-way state.
type KeyReveal struct {
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	BuyerID     uuid.UUID `gorm:"column:buyer_id;type:uuid;not null"`
	RevealedAt  time.Time `gorm:"column:revealed_at;not null"`
}
