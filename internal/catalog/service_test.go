package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

type stubRepo struct {
	createProductFn func(ctx context.Context, product *models.Product) (*models.Product, error)
	findBySlugFn    func(ctx context.Context, slug string) (*models.Product, error)
	listProductsFn  func(ctx context.Context, query ListQuery) ([]models.Product, error)
	listOffersFn    func(ctx context.Context, productID uuid.UUID) ([]OfferRow, error)
	findProductFn   func(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

func (s *stubRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if s.createProductFn != nil {
		return s.createProductFn(ctx, product)
	}
	return product, nil
}
func (s *stubRepo) UpdateProduct(ctx context.Context, product *models.Product) error { return nil }
func (s *stubRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error            { return nil }
func (s *stubRepo) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.findProductFn != nil {
		return s.findProductFn(ctx, id)
	}
	return &models.Product{ID: id}, nil
}
func (s *stubRepo) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if s.findBySlugFn != nil {
		return s.findBySlugFn(ctx, slug)
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubRepo) ListProducts(ctx context.Context, query ListQuery) ([]models.Product, error) {
	if s.listProductsFn != nil {
		return s.listProductsFn(ctx, query)
	}
	return nil, nil
}
func (s *stubRepo) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	return offer, nil
}
func (s *stubRepo) FindOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubRepo) ListOffersByProduct(ctx context.Context, productID uuid.UUID) ([]OfferRow, error) {
	if s.listOffersFn != nil {
		return s.listOffersFn(ctx, productID)
	}
	return nil, nil
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Elden Ring":             "elden-ring",
		"  FIFA 25 (PS5)  ":      "fifa-25-ps5",
		"Microsoft Office 2024!": "microsoft-office-2024",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCreateProductRequiresTitle(t *testing.T) {
	svc, _ := NewService(&stubRepo{})
	_, err := svc.CreateProduct(context.Background(), CreateProductInput{Title: "   "})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateProductDuplicateSlugConflicts(t *testing.T) {
	repo := &stubRepo{
		createProductFn: func(ctx context.Context, product *models.Product) (*models.Product, error) {
			return nil, errors.New(`duplicate key value violates unique constraint "products_slug_key"`)
		},
	}
	svc, _ := NewService(repo)
	_, err := svc.CreateProduct(context.Background(), CreateProductInput{Title: "Elden Ring"})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetProductBySlugNotFound(t *testing.T) {
	svc, _ := NewService(&stubRepo{})
	_, err := svc.GetProductBySlug(context.Background(), "missing-game")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListProductsInvalidCursor(t *testing.T) {
	svc, _ := NewService(&stubRepo{})
	_, err := svc.ListProducts(context.Background(), ListParams{Cursor: "not-a-cursor"})
	if err == nil {
		t.Fatal("expected validation error for invalid cursor")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOfferValidations(t *testing.T) {
	svc, _ := NewService(&stubRepo{})

	if _, err := svc.CreateOffer(context.Background(), uuid.Nil, CreateOfferInput{ProductID: uuid.New(), Price: 100}); err == nil {
		t.Fatal("expected error when vendor id missing")
	}
	if _, err := svc.CreateOffer(context.Background(), uuid.New(), CreateOfferInput{ProductID: uuid.New(), Price: -1}); err == nil {
		t.Fatal("expected error for negative price")
	}

	offer, err := svc.CreateOffer(context.Background(), uuid.New(), CreateOfferInput{ProductID: uuid.New(), Price: 15000})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if offer.Region != "GLOBAL" {
		t.Fatalf("expected default region GLOBAL, got %q", offer.Region)
	}
}
