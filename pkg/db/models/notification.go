package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/enums"
)

// Notification is an in-app message shown to a user.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	Kind      enums.NotificationKind `gorm:"column:kind;type:notification_kind;not null"`
	Body      string                 `gorm:"column:body;not null"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
