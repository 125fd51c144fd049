package sales

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dulces-mila/mila-backend/internal/shared"
)

// identityAs stands in for the auth middleware, injecting a fixed caller.
func identityAs(id *shared.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
		})
	}
}

func newSaleRouter(svc *Service, caller *shared.Identity) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, nil, identityAs(caller), nil)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestGetSaleOwnership(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Alfajor", 1000, 10)
	svc := newTestService(repo)

	sale, err := svc.RealizeSale(context.Background(), 1, []ItemRequest{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)
	path := fmt.Sprintf("/sales/%d", sale.ID)

	cases := []struct {
		name   string
		caller *shared.Identity
		status int
	}{
		{"owner sees own sale", &shared.Identity{UserID: 1, Role: "CLIENTE"}, http.StatusOK},
		{"other customer gets not found", &shared.Identity{UserID: 2, Role: "CLIENTE"}, http.StatusNotFound},
		{"admin sees any sale", &shared.Identity{UserID: 2, Role: "ADMIN"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, path, nil)
			newSaleRouter(svc, tc.caller).ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestGetSaleBadID(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	caller := &shared.Identity{UserID: 1, Role: "CLIENTE"}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sales/zero", nil)
	newSaleRouter(svc, caller).ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/sales/999", nil)
	newSaleRouter(svc, caller).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
