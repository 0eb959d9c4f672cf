package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/api/middleware"
	"github.com/nexus-market/nexus-backend/api/responses"
	"github.com/nexus-market/nexus-backend/api/validators"
	stocksvc "github.com/nexus-market/nexus-backend/internal/stock"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	"github.com/nexus-market/nexus-backend/pkg/logger"
)

type importKeysRequest struct {
	Keys string `json:"keys" validate:"required"`
}

// VendorImportKeys ingests a newline-separated paste of license keys for an
// offer the vendor owns.
func VendorImportKeys(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		actor, role, err := stockActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID, err := pathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload importKeysRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ImportKeys(r.Context(), actor, role, offerID, payload.Keys)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"offer_id": result.OfferID,
			"imported": result.Imported,
		})
	}
}

// VendorStockOverview reports available/sold key counts for an offer.
func VendorStockOverview(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		actor, role, err := stockActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID, err := pathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overview, err := svc.Overview(r.Context(), actor, role, offerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"offer_id":  overview.OfferID,
			"available": overview.Available,
			"sold":      overview.Sold,
		})
	}
}

func stockActor(r *http.Request) (actor uuid.UUID, role enums.UserRole, err error) {
	actor, err = actorID(r)
	if err != nil {
		return actor, role, err
	}
	role, err = enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return actor, role, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown role")
	}
	return actor, role, nil
}
