package handler_test

import (
	"context"
	"customer-manager/internal/api/handler"
	"customer-manager/internal/domain/customer"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWebRouter(t *testing.T) (*chi.Mux, *customer.Store) {
	t.Helper()
	store := customer.NewStore(context.Background(), &memoryRepository{records: seedRecords()}, nil, testLogger)
	h, err := handler.NewWebHandler(store, testLogger)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/", h.Dashboard)
	r.Get("/customers", h.ListCustomers)
	r.Get("/customers/new", h.NewCustomerForm)
	r.Post("/customers", h.CreateCustomer)
	r.Get("/customers/search", h.SearchCustomers)
	return r, store
}

func postForm(router http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNewWebHandler_NilStore(t *testing.T) {
	_, err := handler.NewWebHandler(nil, testLogger)
	assert.Error(t, err)
}

func TestWebHandler_Pages(t *testing.T) {
	router, _ := setupWebRouter(t)

	t.Run("Dashboard shows statistics and top balances", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		assert.Contains(t, body, "<h1>Dashboard</h1>")
		assert.Contains(t, body, "$150.00")
		assert.Contains(t, body, "Ana Gomez")
	})

	t.Run("List shows every customer", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/customers", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "bruno@example.com")
		assert.Contains(t, body, "Inactive")
		assert.Less(t, strings.Index(body, "Ana Gomez"), strings.Index(body, "Bruno Silva"))
	})

	t.Run("Search filters by name", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/customers/search?q=carla", "")

		body := rec.Body.String()
		assert.Contains(t, body, "Carla Diaz")
		assert.NotContains(t, body, "Bruno Silva")
	})

	t.Run("Empty search asks for a name", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/customers/search?q=", "")
		assert.Contains(t, rec.Body.String(), "Enter a name to search for.")
	})

	t.Run("Search output is escaped", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/customers/search?q="+url.QueryEscape("<script>"), "")
		assert.NotContains(t, rec.Body.String(), "<script>")
	})

	t.Run("Form is prefilled with the default rate", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/customers/new", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="discountRate" value="0.1"`)
	})
}

func TestWebHandler_CreateCustomer(t *testing.T) {
	t.Run("Registers and redirects", func(t *testing.T) {
		router, store := setupWebRouter(t)

		rec := postForm(router, url.Values{
			"name":         {"diego ruiz"},
			"email":        {"diego@example.com"},
			"balance":      {"75.5"},
			"vip":          {"true"},
			"discountRate": {"0.2"},
		})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/customers?registered=diego@example.com", rec.Header().Get("Location"))

		acc, ok := store.Find("diego@example.com")
		require.True(t, ok)
		vipAcc, isVIP := acc.(*customer.VIPCustomer)
		require.True(t, isVIP)
		assert.Equal(t, customer.TierPlatinum, vipAcc.Tier())
		assert.Equal(t, "75.50", acc.Balance().StringFixed(2))
	})

	t.Run("Invalid email re-renders the form", func(t *testing.T) {
		router, store := setupWebRouter(t)

		rec := postForm(router, url.Values{"name": {"Eva"}, "email": {"eva-at-example"}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "email invalid email format")
		assert.Contains(t, body, `value="eva-at-example"`)
		assert.Equal(t, 3, store.Len())
	})

	t.Run("Unparseable balance", func(t *testing.T) {
		router, _ := setupWebRouter(t)

		rec := postForm(router, url.Values{"name": {"Eva"}, "email": {"eva@example.com"}, "balance": {"lots"}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "balance must be a number")
	})

	t.Run("Duplicate email", func(t *testing.T) {
		router, _ := setupWebRouter(t)

		rec := postForm(router, url.Values{"name": {"Ana"}, "email": {"ana@example.com"}})

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "already registered")
	})
}
