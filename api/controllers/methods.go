package controllers

import (
	"net/http"

	"github.com/nexus-market/nexus-backend/api/responses"
	"github.com/nexus-market/nexus-backend/internal/pricing"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	"github.com/nexus-market/nexus-backend/pkg/logger"
)

type paymentMethodResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Label      string `json:"label"`
	FeePercent string `json:"fee_percent"`
}

// ListPaymentMethods exposes the selectable payment methods and their fees.
func ListPaymentMethods(engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing engine unavailable"))
			return
		}

		methods := engine.Methods()
		items := make([]paymentMethodResponse, 0, len(methods))
		for _, method := range methods {
			items = append(items, paymentMethodResponse{
				ID:         method.ID,
				Kind:       string(method.Kind),
				Label:      method.Label,
				FeePercent: method.FeePercent.String(),
			})
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
