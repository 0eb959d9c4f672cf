package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

type stubRepo struct {
	findFn  func(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	itemsFn func(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	listFn  func(ctx context.Context, query ListQuery) ([]models.Order, error)
}

func (s *stubRepo) FindForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID, buyerID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	if s.itemsFn != nil {
		return s.itemsFn(ctx, orderID)
	}
	return nil, nil
}

func (s *stubRepo) ListForBuyer(ctx context.Context, query ListQuery) ([]models.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, query)
	}
	return nil, nil
}

func TestGetForeignOrderNotFound(t *testing.T) {
	svc, _ := NewService(&stubRepo{})
	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetReturnsOrderWithItems(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()
	repo := &stubRepo{
		findFn: func(ctx context.Context, oid, bid uuid.UUID) (*models.Order, error) {
			if oid != orderID || bid != buyerID {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.Order{ID: orderID, BuyerID: buyerID, Reference: "NXS-000042"}, nil
		},
		itemsFn: func(ctx context.Context, oid uuid.UUID) ([]models.OrderItem, error) {
			return []models.OrderItem{{OrderID: oid, ProductTitle: "Elden Ring", Qty: 1}}, nil
		},
	}
	svc, _ := NewService(repo)

	detail, err := svc.Get(context.Background(), buyerID, orderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.Order.Reference != "NXS-000042" {
		t.Fatalf("unexpected order: %+v", detail.Order)
	}
	if len(detail.Items) != 1 || detail.Items[0].ProductTitle != "Elden Ring" {
		t.Fatalf("unexpected items: %+v", detail.Items)
	}
}

func TestListPaginatesWithCursor(t *testing.T) {
	buyerID := uuid.New()
	now := time.Now()
	rows := make([]models.Order, 4)
	for i := range rows {
		rows[i] = models.Order{ID: uuid.New(), BuyerID: buyerID, CreatedAt: now.Add(-time.Duration(i) * time.Hour)}
	}
	repo := &stubRepo{
		listFn: func(ctx context.Context, query ListQuery) ([]models.Order, error) {
			if query.Limit < len(rows) {
				return rows[:query.Limit], nil
			}
			return rows, nil
		},
	}
	svc, _ := NewService(repo)

	page, err := svc.List(context.Background(), buyerID, ListParams{Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Items))
	}
	if page.Cursor == "" {
		t.Fatal("expected a next cursor")
	}
}

func TestListInvalidCursor(t *testing.T) {
	svc, _ := NewService(&stubRepo{})
	_, err := svc.List(context.Background(), uuid.New(), ListParams{Cursor: "???"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
