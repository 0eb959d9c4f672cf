package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/api/responses"
	"github.com/nexus-market/nexus-backend/api/validators"
	catalogsvc "github.com/nexus-market/nexus-backend/internal/catalog"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	"github.com/nexus-market/nexus-backend/pkg/logger"
	"github.com/nexus-market/nexus-backend/pkg/pagination"
)

// ListProducts serves the public catalog with platform and weekly-offer filters.
func ListProducts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		weeklyOnly, err := validators.ParseQueryBool(r, "weeklyOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := catalogsvc.ListParams{
			Platform:   strings.TrimSpace(r.URL.Query().Get("platform")),
			WeeklyOnly: weeklyOnly,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := svc.ListProducts(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(result.Items))
		for _, product := range result.Items {
			items = append(items, newProductResponse(product))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": result.Cursor})
	}
}

// ProductBySlug serves the product page: the product plus every live offer.
func ProductBySlug(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		slug := strings.TrimSpace(routeParam(r, "slug"))
		detail, err := svc.GetProductBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offers := make([]offerResponse, 0, len(detail.Offers))
		for _, row := range detail.Offers {
			offers = append(offers, newOfferResponse(row))
		}
		responses.WriteSuccess(w, map[string]any{
			"product": newProductResponse(detail.Product),
			"offers":  offers,
		})
	}
}

// AdminCreateProduct handles catalog entry creation.
func AdminCreateProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(*product))
	}
}

// AdminUpdateProduct applies a partial catalog entry update.
func AdminUpdateProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

// AdminDeleteProduct removes a catalog entry.
func AdminDeleteProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// VendorCreateOffer lists a priced offer under the authenticated vendor.
func VendorCreateOffer(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.CreateOffer(r.Context(), vendorID, catalogsvc.CreateOfferInput{
			ProductID:  payload.ProductID,
			Price:      payload.Price,
			Region:     payload.Region,
			IsOfficial: payload.IsOfficial,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOfferResponse(catalogsvc.OfferRow{Offer: *offer}))
	}
}

type createProductRequest struct {
	Title         string  `json:"title" validate:"required"`
	Platform      *string `json:"platform,omitempty"`
	ImageURL      string  `json:"image_url" validate:"required,url"`
	CoverURL      *string `json:"cover_url,omitempty" validate:"omitempty,url"`
	Description   *string `json:"description,omitempty"`
	ReleaseDate   *string `json:"release_date,omitempty"`
	IsWeeklyOffer bool    `json:"is_weekly_offer"`
}

func (p createProductRequest) toInput() (catalogsvc.CreateProductInput, error) {
	platform, err := parsePlatform(p.Platform)
	if err != nil {
		return catalogsvc.CreateProductInput{}, err
	}
	releaseDate, err := parseReleaseDate(p.ReleaseDate)
	if err != nil {
		return catalogsvc.CreateProductInput{}, err
	}
	return catalogsvc.CreateProductInput{
		Title:         p.Title,
		Platform:      platform,
		ImageURL:      p.ImageURL,
		CoverURL:      p.CoverURL,
		Description:   p.Description,
		ReleaseDate:   releaseDate,
		IsWeeklyOffer: p.IsWeeklyOffer,
	}, nil
}

type updateProductRequest struct {
	Title         *string `json:"title,omitempty"`
	Platform      *string `json:"platform,omitempty"`
	ImageURL      *string `json:"image_url,omitempty" validate:"omitempty,url"`
	CoverURL      *string `json:"cover_url,omitempty" validate:"omitempty,url"`
	Description   *string `json:"description,omitempty"`
	ReleaseDate   *string `json:"release_date,omitempty"`
	IsWeeklyOffer *bool   `json:"is_weekly_offer,omitempty"`
}

func (p updateProductRequest) toInput() (catalogsvc.UpdateProductInput, error) {
	platform, err := parsePlatform(p.Platform)
	if err != nil {
		return catalogsvc.UpdateProductInput{}, err
	}
	releaseDate, err := parseReleaseDate(p.ReleaseDate)
	if err != nil {
		return catalogsvc.UpdateProductInput{}, err
	}
	return catalogsvc.UpdateProductInput{
		Title:         p.Title,
		Platform:      platform,
		ImageURL:      p.ImageURL,
		CoverURL:      p.CoverURL,
		Description:   p.Description,
		ReleaseDate:   releaseDate,
		IsWeeklyOffer: p.IsWeeklyOffer,
	}, nil
}

type createOfferRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	Price      int       `json:"price" validate:"required,min=1"`
	Region     string    `json:"region,omitempty"`
	IsOfficial bool      `json:"is_official"`
}

func parsePlatform(raw *string) (*enums.Platform, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	platform, err := enums.ParsePlatform(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform")
	}
	return &platform, nil
}

func parseReleaseDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "release_date must be YYYY-MM-DD")
	}
	return &parsed, nil
}

type productResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Platform      *string    `json:"platform,omitempty"`
	ImageURL      string     `json:"image_url"`
	CoverURL      *string    `json:"cover_url,omitempty"`
	Description   *string    `json:"description,omitempty"`
	ReleaseDate   *time.Time `json:"release_date,omitempty"`
	IsWeeklyOffer bool       `json:"is_weekly_offer"`
	CreatedAt     time.Time  `json:"created_at"`
}

func newProductResponse(product models.Product) productResponse {
	resp := productResponse{
		ID:            product.ID,
		Title:         product.Title,
		Slug:          product.Slug,
		ImageURL:      product.ImageURL,
		CoverURL:      product.CoverURL,
		Description:   product.Description,
		ReleaseDate:   product.ReleaseDate,
		IsWeeklyOffer: product.IsWeeklyOffer,
		CreatedAt:     product.CreatedAt,
	}
	if product.Platform != nil {
		value := string(*product.Platform)
		resp.Platform = &value
	}
	return resp
}

type offerResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	VendorID       uuid.UUID `json:"vendor_id"`
	VendorUsername *string   `json:"vendor_username,omitempty"`
	Price          int       `json:"price"`
	Stock          int       `json:"stock"`
	Region         string    `json:"region"`
	IsOfficial     bool      `json:"is_official"`
}

func newOfferResponse(row catalogsvc.OfferRow) offerResponse {
	return offerResponse{
		ID:             row.ID,
		ProductID:      row.ProductID,
		VendorID:       row.VendorID,
		VendorUsername: row.VendorUsername,
		Price:          row.Price,
		Stock:          row.Stock,
		Region:         row.Region,
		IsOfficial:     row.IsOfficial,
	}
}
