package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/enums"
)

// OrderItem captures the snapshot of each purchased line within an order.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	OfferID      uuid.UUID       `gorm:"column:offer_id;type:uuid;not null"`
	ProductTitle string          `gorm:"column:product_title;not null"`
	Platform     *enums.Platform `gorm:"column:platform;type:platform"`
	UnitPrice    int             `gorm:"column:unit_price;not null"`
	Qty          int             `gorm:"column:qty;not null"`
	LineTotal    int             `gorm:"column:line_total;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
