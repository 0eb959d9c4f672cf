package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/api/responses"
	"github.com/nexus-market/nexus-backend/api/validators"
	cartsvc "github.com/nexus-market/nexus-backend/internal/cart"
	"github.com/nexus-market/nexus-backend/internal/pricing"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	"github.com/nexus-market/nexus-backend/pkg/logger"
)

// CartFetch returns the buyer's cart quoted against the requested payment
// method. An empty method falls back to the storefront default.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method := strings.TrimSpace(r.URL.Query().Get("method"))
		view, err := svc.Get(r.Context(), buyerID, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartViewResponse(view))
	}
}

type addCartItemRequest struct {
	OfferID uuid.UUID `json:"offer_id" validate:"required"`
	Qty     int       `json:"qty" validate:"required,min=1"`
}

// CartAddItem adds an offer to the cart, snapshotting its current price.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), buyerID, payload.OfferID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartViewResponse(view))
	}
}

// CartDecreaseItem drops one unit of the offer, removing the line at zero.
func CartDecreaseItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID, err := pathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.DecreaseItem(r.Context(), buyerID, offerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartViewResponse(view))
	}
}

// CartRemoveItem deletes a line from the cart regardless of quantity.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID, err := pathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveItem(r.Context(), buyerID, offerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartViewResponse(view))
	}
}

// CartClear empties the cart and forgets any applied promo.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), buyerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

type applyPromoRequest struct {
	Code string `json:"code" validate:"required"`
}

// CartApplyPromo validates and stores a promo code on the cart.
func CartApplyPromo(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ApplyPromo(r.Context(), buyerID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartViewResponse(view))
	}
}

// CartRemovePromo clears the stored promo code.
func CartRemovePromo(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemovePromo(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartViewResponse(view))
	}
}

type cartItemResponse struct {
	OfferID      uuid.UUID `json:"offer_id"`
	ProductTitle string    `json:"product_title"`
	Platform     *string   `json:"platform,omitempty"`
	UnitPrice    int       `json:"unit_price"`
	Qty          int       `json:"qty"`
	LineTotal    int       `json:"line_total"`
	AddedAt      time.Time `json:"added_at"`
}

type cartSummaryResponse struct {
	Subtotal           int    `json:"subtotal"`
	DiscountAmount     int    `json:"discount_amount"`
	DiscountedSubtotal int    `json:"discounted_subtotal"`
	FeeAmount          int    `json:"fee_amount"`
	Total              int    `json:"total"`
	PromoCode          string `json:"promo_code,omitempty"`
	MethodID           string `json:"method_id"`
}

type cartViewResponse struct {
	CartID    uuid.UUID           `json:"cart_id"`
	Items     []cartItemResponse  `json:"items"`
	PromoCode *string             `json:"promo_code,omitempty"`
	Summary   cartSummaryResponse `json:"summary"`
}

func newCartViewResponse(view *cartsvc.View) cartViewResponse {
	if view == nil {
		return cartViewResponse{Items: []cartItemResponse{}}
	}
	items := make([]cartItemResponse, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, newCartItemResponse(item))
	}
	return cartViewResponse{
		CartID:    view.CartID,
		Items:     items,
		PromoCode: view.PromoCode,
		Summary:   newCartSummaryResponse(view.Summary),
	}
}

func newCartItemResponse(item models.CartItem) cartItemResponse {
	resp := cartItemResponse{
		OfferID:      item.OfferID,
		ProductTitle: item.ProductTitle,
		UnitPrice:    item.UnitPrice,
		Qty:          item.Qty,
		LineTotal:    item.UnitPrice * item.Qty,
		AddedAt:      item.CreatedAt,
	}
	if item.Platform != nil {
		value := string(*item.Platform)
		resp.Platform = &value
	}
	return resp
}

func newCartSummaryResponse(summary pricing.Summary) cartSummaryResponse {
	return cartSummaryResponse{
		Subtotal:           summary.Subtotal,
		DiscountAmount:     summary.DiscountAmount,
		DiscountedSubtotal: summary.DiscountedSubtotal,
		FeeAmount:          summary.FeeAmount,
		Total:              summary.Total,
		PromoCode:          summary.PromoCode,
		MethodID:           summary.MethodID,
	}
}
