package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/enums"
)

// Product is a catalog entry (game, subscription, software).
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string          `gorm:"column:title;not null"`
	Slug          string          `gorm:"column:slug;not null;unique"`
	Platform      *enums.Platform `gorm:"column:platform;type:platform"`
	ImageURL      string          `gorm:"column:image_url;not null"`
	CoverURL      *string         `gorm:"column:cover_url"`
	Description   *string         `gorm:"column:description"`
	ReleaseDate   *time.Time      `gorm:"column:release_date"`
	IsWeeklyOffer bool            `gorm:"column:is_weekly_offer;not null;default:false"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Offers []Offer `gorm:"foreignKey:ProductID"`
}
