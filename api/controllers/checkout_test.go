package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/api/middleware"
	checkoutsvc "github.com/nexus-market/nexus-backend/internal/checkout"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

type testCheckoutService struct {
	executeFn func(ctx context.Context, buyerID uuid.UUID, input checkoutsvc.Input) (*models.Order, error)
}

func (s *testCheckoutService) Execute(ctx context.Context, buyerID uuid.UUID, input checkoutsvc.Input) (*models.Order, error) {
	return s.executeFn(ctx, buyerID, input)
}

func TestCheckoutReturnsCreatedOrder(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()
	svc := &testCheckoutService{
		executeFn: func(ctx context.Context, b uuid.UUID, input checkoutsvc.Input) (*models.Order, error) {
			if b != buyerID {
				t.Fatalf("unexpected buyer %s", b)
			}
			if input.MethodID != "cards" || input.Email != "buyer@example.com" {
				t.Fatalf("unexpected input %+v", input)
			}
			return &models.Order{
				ID:                 orderID,
				Reference:          "NXS-3F9A2C",
				BuyerID:            b,
				Status:             enums.OrderStatusPaid,
				FulfillmentStage:   enums.FulfillmentStageReceived,
				PaymentMethod:      enums.PaymentMethodCard,
				Subtotal:           12000,
				DiscountAmount:     1200,
				DiscountedSubtotal: 10800,
				FeeAmount:          432,
				Total:              11232,
				Email:              input.Email,
			}, nil
		},
	}

	body := `{"method": "cards", "email": "buyer@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), buyerID.String()))

	resp := httptest.NewRecorder()
	Checkout(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.ID != orderID {
		t.Fatalf("unexpected order id %s", envelope.Data.ID)
	}
	if envelope.Data.Total != 11232 || envelope.Data.FeeAmount != 432 {
		t.Fatalf("unexpected totals %+v", envelope.Data)
	}
	if envelope.Data.Status != string(enums.OrderStatusPaid) {
		t.Fatalf("unexpected status %q", envelope.Data.Status)
	}
}

func TestCheckoutRejectsInvalidBody(t *testing.T) {
	svc := &testCheckoutService{
		executeFn: func(ctx context.Context, b uuid.UUID, input checkoutsvc.Input) (*models.Order, error) {
			t.Fatal("service must not be called on invalid body")
			return nil, nil
		},
	}

	body := `{"method": "cards", "email": "not-an-email"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	Checkout(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCheckoutMapsEmptyCartError(t *testing.T) {
	svc := &testCheckoutService{
		executeFn: func(ctx context.Context, b uuid.UUID, input checkoutsvc.Input) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		},
	}

	body := `{"method": "cinetpay", "email": "buyer@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	Checkout(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "cart is empty" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestCheckoutRequiresAuthenticatedBuyer(t *testing.T) {
	svc := &testCheckoutService{
		executeFn: func(ctx context.Context, b uuid.UUID, input checkoutsvc.Input) (*models.Order, error) {
			t.Fatal("service must not be called without an actor")
			return nil, nil
		},
	}

	body := `{"method": "cinetpay", "email": "buyer@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	Checkout(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
