package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/enums"
)

// CartItem stores an immutable price snapshot taken when the offer was added.
type CartItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID       uuid.UUID       `gorm:"column:cart_id;type:uuid;not null"`
	OfferID      uuid.UUID       `gorm:"column:offer_id;type:uuid;not null"`
	ProductTitle string          `gorm:"column:product_title;not null"`
	Platform     *enums.Platform `gorm:"column:platform;type:platform"`
	UnitPrice    int             `gorm:"column:unit_price;not null"`
	Qty          int             `gorm:"column:qty;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
