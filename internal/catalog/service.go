package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/pkg/db"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	pkgpagination "github.com/nexus-market/nexus-backend/pkg/pagination"
)

type catalogRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, query ListQuery) ([]models.Product, error)
	CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	FindOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	ListOffersByProduct(ctx context.Context, productID uuid.UUID) ([]OfferRow, error)
}

// Service exposes catalog browsing plus the admin/vendor back-office operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProductBySlug(ctx context.Context, slug string) (*ProductDetail, error)
	ListProducts(ctx context.Context, params ListParams) (*ListResult, error)
	CreateOffer(ctx context.Context, vendorID uuid.UUID, input CreateOfferInput) (*models.Offer, error)
}

// CreateProductInput holds the fields accepted when creating a product.
type CreateProductInput struct {
	Title         string
	Platform      *enums.Platform
	ImageURL      string
	CoverURL      *string
	Description   *string
	ReleaseDate   *time.Time
	IsWeeklyOffer bool
}

// UpdateProductInput holds optional product updates; nil means unchanged.
type UpdateProductInput struct {
	Title         *string
	Platform      *enums.Platform
	ImageURL      *string
	CoverURL      *string
	Description   *string
	ReleaseDate   *time.Time
	IsWeeklyOffer *bool
}

// CreateOfferInput holds the fields accepted when a vendor lists an offer.
type CreateOfferInput struct {
	ProductID  uuid.UUID
	Price      int
	Region     string
	IsOfficial bool
}

// ListParams captures product listing filters and pagination.
type ListParams struct {
	Platform   string
	WeeklyOnly bool
	Limit      int
	Cursor     string
}

// ListResult is one page of products.
type ListResult struct {
	Items  []models.Product
	Cursor string
}

// ProductDetail is a product with its offers joined for the product page.
type ProductDetail struct {
	Product models.Product
	Offers  []OfferRow
}

type service struct {
	repo catalogRepository
}

// NewService builds the catalog service.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a product title into its URL slug.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Platform != nil && !input.Platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid platform")
	}
	slug := Slugify(title)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must contain letters or digits")
	}

	product := &models.Product{
		Title:         title,
		Slug:          slug,
		Platform:      input.Platform,
		ImageURL:      strings.TrimSpace(input.ImageURL),
		CoverURL:      input.CoverURL,
		Description:   input.Description,
		ReleaseDate:   input.ReleaseDate,
		IsWeeklyOffer: input.IsWeeklyOffer,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this title already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		product.Title = title
		product.Slug = Slugify(title)
	}
	if input.Platform != nil {
		if !input.Platform.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid platform")
		}
		product.Platform = input.Platform
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.CoverURL != nil {
		product.CoverURL = input.CoverURL
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.ReleaseDate != nil {
		product.ReleaseDate = input.ReleaseDate
	}
	if input.IsWeeklyOffer != nil {
		product.IsWeeklyOffer = *input.IsWeeklyOffer
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this title already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.repo.FindProductByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	product, err := s.repo.FindProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}

	offers, err := s.repo.ListOffersByProduct(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}

	return &ProductDetail{Product: *product, Offers: offers}, nil
}

func (s *service) ListProducts(ctx context.Context, params ListParams) (*ListResult, error) {
	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := ListQuery{
		WeeklyOnly: params.WeeklyOnly,
		Limit:      pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Platform != "" {
		platform, err := enums.ParsePlatform(params.Platform)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform filter")
		}
		value := string(platform)
		query.Platform = &value
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	return &ListResult{Items: rows, Cursor: nextCursor}, nil
}

func (s *service) CreateOffer(ctx context.Context, vendorID uuid.UUID, input CreateOfferInput) (*models.Offer, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	if _, err := s.repo.FindProductByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}

	region := strings.ToUpper(strings.TrimSpace(input.Region))
	if region == "" {
		region = "GLOBAL"
	}

	offer := &models.Offer{
		ProductID:  input.ProductID,
		VendorID:   vendorID,
		Price:      input.Price,
		Region:     region,
		IsOfficial: input.IsOfficial,
	}
	created, err := s.repo.CreateOffer(ctx, offer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	return created, nil
}
