package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/api/responses"
	"github.com/nexus-market/nexus-backend/api/validators"
	disclosuresvc "github.com/nexus-market/nexus-backend/internal/disclosure"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	"github.com/nexus-market/nexus-backend/pkg/logger"
)

// ListReveals returns the disclosure state of every item in the order. Keys
// stay masked until the buyer walks the reveal flow.
func ListReveals(svc disclosuresvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "disclosure service unavailable"))
			return
		}

		buyerID, orderID, err := revealScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.Items(r.Context(), buyerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]revealResponse, 0, len(views))
		for _, view := range views {
			items = append(items, newRevealResponse(view))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// RequestReveal starts the disclosure flow for one purchased item.
func RequestReveal(svc disclosuresvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "disclosure service unavailable"))
			return
		}

		buyerID, orderID, itemID, err := revealItemScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RequestReveal(r.Context(), buyerID, orderID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "pending_confirmation"})
	}
}

// CancelReveal backs out of a pending confirmation without revealing.
func CancelReveal(svc disclosuresvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "disclosure service unavailable"))
			return
		}

		buyerID, orderID, itemID, err := revealItemScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CancelReveal(r.Context(), buyerID, orderID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "hidden"})
	}
}

type confirmRevealRequest struct {
	AcceptedWarning bool `json:"accepted_warning"`
}

// ConfirmReveal completes the flow: with the warning accepted the plaintext
// key is decoded and returned, and the reveal is remembered durably.
func ConfirmReveal(svc disclosuresvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "disclosure service unavailable"))
			return
		}

		buyerID, orderID, itemID, err := revealItemScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmRevealRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ConfirmReveal(r.Context(), buyerID, orderID, itemID, payload.AcceptedWarning)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRevealResponse(view))
	}
}

func revealScope(r *http.Request) (buyerID, orderID uuid.UUID, err error) {
	buyerID, err = actorID(r)
	if err != nil {
		return buyerID, orderID, err
	}
	orderID, err = pathUUID(r, "orderId")
	return buyerID, orderID, err
}

func revealItemScope(r *http.Request) (buyerID, orderID, itemID uuid.UUID, err error) {
	buyerID, orderID, err = revealScope(r)
	if err != nil {
		return buyerID, orderID, itemID, err
	}
	itemID, err = pathUUID(r, "itemId")
	return buyerID, orderID, itemID, err
}

type revealResponse struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Status      string    `json:"status"`
	Key         *string   `json:"key,omitempty"`
}

func newRevealResponse(view disclosuresvc.ItemView) revealResponse {
	return revealResponse{
		OrderItemID: view.OrderItemID,
		Status:      string(view.Status),
		Key:         view.Plaintext,
	}
}
