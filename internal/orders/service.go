package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	pkgpagination "github.com/nexus-market/nexus-backend/pkg/pagination"
)

type ordersRepository interface {
	FindForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	ListForBuyer(ctx context.Context, query ListQuery) ([]models.Order, error)
}

// Detail is a full order with its purchased lines for the order page.
type Detail struct {
	Order models.Order
	Items []models.OrderItem
}

// ListParams captures buyer order history pagination.
type ListParams struct {
	Limit  int
	Cursor string
}

// ListResult is one page of the buyer's order history.
type ListResult struct {
	Items  []models.Order
	Cursor string
}

// Service exposes a buyer's order history.
type Service interface {
	List(ctx context.Context, buyerID uuid.UUID, params ListParams) (*ListResult, error)
	Get(ctx context.Context, buyerID, orderID uuid.UUID) (*Detail, error)
}

type service struct {
	repo ordersRepository
}

// NewService builds the orders service.
func NewService(repo ordersRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, buyerID uuid.UUID, params ListParams) (*ListResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer identity missing")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := ListQuery{
		BuyerID: buyerID,
		Limit:   pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.ListForBuyer(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
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

func (s *service) Get(ctx context.Context, buyerID, orderID uuid.UUID) (*Detail, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.repo.FindForBuyer(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
	}

	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}

	return &Detail{Order: *order, Items: items}, nil
}
