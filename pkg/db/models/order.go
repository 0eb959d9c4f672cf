package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/enums"
)

// Order snapshots a completed checkout: the priced totals are frozen at
// charge time and never recomputed afterwards.
type Order struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference          string                  `gorm:"column:reference;not null;unique"`
	BuyerID            uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null"`
	Status             enums.OrderStatus       `gorm:"column:status;type:order_status;not null;default:'pending'"`
	FulfillmentStage   enums.FulfillmentStage  `gorm:"column:fulfillment_stage;type:fulfillment_stage;not null;default:'received'"`
	PaymentMethod      enums.PaymentMethodKind `gorm:"column:payment_method;type:payment_method_kind;not null"`
	PromoCode          *string                 `gorm:"column:promo_code"`
	Subtotal           int                     `gorm:"column:subtotal;not null"`
	DiscountAmount     int                     `gorm:"column:discount_amount;not null;default:0"`
	DiscountedSubtotal int                     `gorm:"column:discounted_subtotal;not null"`
	FeeAmount          int                     `gorm:"column:fee_amount;not null;default:0"`
	Total              int                     `gorm:"column:total;not null"`
	Email              string                  `gorm:"column:email;not null"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}
