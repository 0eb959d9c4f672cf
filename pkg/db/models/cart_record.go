package models

import (
	"time"

	"github.com/google/uuid"
)

// CartRecord is the server-persisted cart for a buyer: hydrated once when a
// session starts and rewritten on every mutation. One active cart per buyer.
type CartRecord struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID   uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;unique"`
	PromoCode *string   `gorm:"column:promo_code"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Items []CartItem `gorm:"foreignKey:CartID"`
}
