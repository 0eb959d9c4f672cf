package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/api/responses"
	"github.com/nexus-market/nexus-backend/api/validators"
	orderssvc "github.com/nexus-market/nexus-backend/internal/orders"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	"github.com/nexus-market/nexus-backend/pkg/logger"
	"github.com/nexus-market/nexus-backend/pkg/pagination"
)

// ListOrders pages through the buyer's order history, newest first.
func ListOrders(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), buyerID, orderssvc.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(result.Items))
		for _, order := range result.Items {
			items = append(items, newOrderResponse(order))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": result.Cursor})
	}
}

// OrderDetail returns one of the buyer's orders with its purchased lines.
func OrderDetail(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), buyerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderItemResponse, 0, len(detail.Items))
		for _, item := range detail.Items {
			items = append(items, newOrderItemResponse(item))
		}
		responses.WriteSuccess(w, map[string]any{
			"order": newOrderResponse(detail.Order),
			"items": items,
		})
	}
}

type orderResponse struct {
	ID                 uuid.UUID `json:"id"`
	Reference          string    `json:"reference"`
	Status             string    `json:"status"`
	FulfillmentStage   string    `json:"fulfillment_stage"`
	PaymentMethod      string    `json:"payment_method"`
	PromoCode          *string   `json:"promo_code,omitempty"`
	Subtotal           int       `json:"subtotal"`
	DiscountAmount     int       `json:"discount_amount"`
	DiscountedSubtotal int       `json:"discounted_subtotal"`
	FeeAmount          int       `json:"fee_amount"`
	Total              int       `json:"total"`
	Email              string    `json:"email"`
	CreatedAt          time.Time `json:"created_at"`
}

func newOrderResponse(order models.Order) orderResponse {
	return orderResponse{
		ID:                 order.ID,
		Reference:          order.Reference,
		Status:             string(order.Status),
		FulfillmentStage:   string(order.FulfillmentStage),
		PaymentMethod:      string(order.PaymentMethod),
		PromoCode:          order.PromoCode,
		Subtotal:           order.Subtotal,
		DiscountAmount:     order.DiscountAmount,
		DiscountedSubtotal: order.DiscountedSubtotal,
		FeeAmount:          order.FeeAmount,
		Total:              order.Total,
		Email:              order.Email,
		CreatedAt:          order.CreatedAt,
	}
}

type orderItemResponse struct {
	ID           uuid.UUID `json:"id"`
	OfferID      uuid.UUID `json:"offer_id"`
	ProductTitle string    `json:"product_title"`
	Platform     *string   `json:"platform,omitempty"`
	UnitPrice    int       `json:"unit_price"`
	Qty          int       `json:"qty"`
	LineTotal    int       `json:"line_total"`
}

func newOrderItemResponse(item models.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:           item.ID,
		OfferID:      item.OfferID,
		ProductTitle: item.ProductTitle,
		UnitPrice:    item.UnitPrice,
		Qty:          item.Qty,
		LineTotal:    item.LineTotal,
	}
	if item.Platform != nil {
		value := string(*item.Platform)
		resp.Platform = &value
	}
	return resp
}
