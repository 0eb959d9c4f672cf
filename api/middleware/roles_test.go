package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	handler := RequireRole("admin", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req = req.WithContext(WithRole(req.Context(), "buyer"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRoleAllowsMatch(t *testing.T) {
	handler := RequireRole("admin", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req = req.WithContext(WithRole(req.Context(), "admin"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRequireAnyRoleAcceptsEither(t *testing.T) {
	handler := RequireAnyRole(nil, "vendor", "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, role := range []string{"vendor", "admin"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/offers", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("role %s: expected 204, got %d", role, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/offers", nil)
	req = req.WithContext(WithRole(req.Context(), "buyer"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for buyer, got %d", rec.Code)
	}
}
