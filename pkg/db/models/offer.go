package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer is a vendor's priced listing for a product. Prices are whole XOF
// units: the currency has no subunit, so integer math everywhere.
type Offer struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VendorID   uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	Price      int       `gorm:"column:price;not null"`
	Stock      int       `gorm:"column:stock;not null;default:0"`
	Region     string    `gorm:"column:region;not null;default:'GLOBAL'"`
	IsOfficial bool      `gorm:"column:is_official;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
