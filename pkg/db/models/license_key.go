package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/enums"
)

// LicenseKey holds one sellable activation code. Only the base64 ciphertext
// is stored; plaintext exists transiently when a buyer confirms a reveal.
type LicenseKey struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OfferID     uuid.UUID       `gorm:"column:offer_id;type:uuid;not null"`
	Ciphertext  string          `gorm:"column:ciphertext;not null"`
	Status      enums.KeyStatus `gorm:"column:status;type:key_status;not null;default:'available'"`
	OrderItemID *uuid.UUID      `gorm:"column:order_item_id;type:uuid"`
	BuyerID     *uuid.UUID      `gorm:"column:buyer_id;type:uuid"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
