package controllers

import (
	"net/http"

	"github.com/nexus-market/nexus-backend/api/responses"
	"github.com/nexus-market/nexus-backend/api/validators"
	checkoutsvc "github.com/nexus-market/nexus-backend/internal/checkout"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	"github.com/nexus-market/nexus-backend/pkg/logger"
)

type checkoutRequest struct {
	Method string `json:"method" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

// Checkout charges the buyer's cart and returns the placed order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), buyerID, checkoutsvc.Input{
			MethodID: payload.Method,
			Email:    payload.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(*order))
	}
}
