package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/enums"
)

// User is a storefront account: customer, vendor, or admin.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"column:email;not null;unique"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Username     *string        `gorm:"column:username"`
	Role         enums.UserRole `gorm:"column:role;type:user_role;not null;default:'customer'"`
	AvatarURL    *string        `gorm:"column:avatar_url"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
