package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/internal/repo"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/pagination"
)

// Repository exposes persistence for products and offers.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &Repository{base: repo.NewBase(db)}, nil
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithConn(tx)}
}

// CreateProduct inserts a product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.base.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves the provided product.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.base.DB(ctx).Save(product).Error
}

// DeleteProduct removes a product and, via FK cascade, its offers.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// FindProductByID loads one product.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.base.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductBySlug loads one product by its URL slug.
func (r *Repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.base.DB(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns a page of products ordered newest-first.
func (r *Repository) ListProducts(ctx context.Context, query ListQuery) ([]models.Product, error) {
	db := r.base.DB(ctx).Model(&models.Product{})
	if query.Platform != nil {
		db = db.Where("platform = ?", *query.Platform)
	}
	if query.WeeklyOnly {
		db = db.Where("is_weekly_offer = ?", true)
	}
	if query.Cursor != nil {
		db = db.Where(
			"(created_at, id) < (?, ?)",
			query.Cursor.CreatedAt, query.Cursor.ID,
		)
	}

	var rows []models.Product
	err := db.
		Order("created_at DESC, id DESC").
		Limit(query.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateOffer inserts an offer row.
func (r *Repository) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := r.base.DB(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

// FindOfferByID loads one offer with its product preloaded.
func (r *Repository) FindOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.base.DB(ctx).Preload("Product").First(&offer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListOffersByProduct returns a product's offers ordered cheapest-first,
// with the vendor row joined for display.
func (r *Repository) ListOffersByProduct(ctx context.Context, productID uuid.UUID) ([]OfferRow, error) {
	var rows []OfferRow
	err := r.base.DB(ctx).
		Model(&models.Offer{}).
		Select("offers.*, users.username AS vendor_username").
		Joins("JOIN users ON users.id = offers.vendor_id").
		Where("offers.product_id = ?", productID).
		Order("offers.price ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DecrementOfferStock atomically reduces stock, failing when not enough remains.
func (r *Repository) DecrementOfferStock(ctx context.Context, offerID uuid.UUID, qty int) error {
	result := r.base.DB(ctx).
		Model(&models.Offer{}).
		Where("id = ? AND stock >= ?", offerID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementOfferStock raises the advertised stock, typically after a key import.
func (r *Repository) IncrementOfferStock(ctx context.Context, offerID uuid.UUID, qty int) error {
	return r.base.DB(ctx).
		Model(&models.Offer{}).
		Where("id = ?", offerID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

// ListQuery captures repository-level product listing inputs.
type ListQuery struct {
	Platform   *string
	WeeklyOnly bool
	Limit      int
	Cursor     *pagination.Cursor
}

// OfferRow is an offer joined with its vendor's display name.
type OfferRow struct {
	models.Offer
	VendorUsername *string `gorm:"column:vendor_username"`
}
