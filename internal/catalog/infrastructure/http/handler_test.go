package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/infrastructure/memory"
)

var (
	supplier = access.Principal{UserID: "supplier-1", Role: access.RoleSupplier}
	vendor   = access.Principal{UserID: "vendor-1", Role: access.RoleVendor}
)

// withPrincipal stands in for the bearer middleware.
func withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("X-Test-User") {
		case "supplier":
			r = r.WithContext(access.WithPrincipal(r.Context(), supplier))
		case "vendor":
			r = r.WithContext(access.WithPrincipal(r.Context(), vendor))
		}
		next.ServeHTTP(w, r)
	})
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	guard, err := access.NewGuard()
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(log, application.NewService(log, memory.NewRepository(), guard))

	r := chi.NewRouter()
	h.Public(r)
	r.Group(func(r chi.Router) {
		r.Use(withPrincipal)
		h.Protected(r)
	})
	return r
}

func send(h http.Handler, method, path, body, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("X-Test-User", user)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const productBody = `{"name":"Fresh Tomatoes","description":"Red","price":45.5,"unit":"kg","category":"Vegetables","min_order_quantity":5,"stock_quantity":200}`

func TestPublishAndList(t *testing.T) {
	h := newRouter(t)

	rec := send(h, http.MethodPost, "/products", productBody, "supplier")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"price":45.50`)
	assert.Contains(t, rec.Body.String(), `"supplier_id":"supplier-1"`)

	assert.Equal(t, http.StatusForbidden, send(h, http.MethodPost, "/products", productBody, "vendor").Code)
	assert.Equal(t, http.StatusUnauthorized, send(h, http.MethodPost, "/products", productBody, "").Code)
	assert.Equal(t, http.StatusBadRequest, send(h, http.MethodPost, "/products", `{"name":""}`, "supplier").Code)

	rec = send(h, http.MethodGet, "/products?category=Vegetables", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []productResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = send(h, http.MethodGet, "/products?category=Fruits", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSeedCategoriesAndBrowse(t *testing.T) {
	h := newRouter(t)

	rec := send(h, http.MethodPost, "/seed-data", "", "supplier")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"seeded":37}`, rec.Body.String())

	rec = send(h, http.MethodGet, "/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	assert.Len(t, cats, 10)

	rec = send(h, http.MethodGet, "/products/category/Oils%20&%20Condiments", "", "vendor")
	require.Equal(t, http.StatusOK, rec.Code)
	var oils []productResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &oils))
	assert.Len(t, oils, 3)

	assert.Equal(t, http.StatusForbidden, send(h, http.MethodGet, "/products/category/Spices", "", "supplier").Code)
}
