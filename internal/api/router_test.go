package api

import (
	"bytes"
	"context"
	"customer-manager/internal/config"
	"customer-manager/internal/domain/customer"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyRepository struct{}

func (emptyRepository) Load(context.Context) ([]customer.Record, error) { return nil, nil }
func (emptyRepository) Save(context.Context, []customer.Record) error   { return nil }

func testConfig(authEnabled bool) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Auth: config.AuthConfig{Enabled: authEnabled, JWTSecret: "router-secret"},
			RateLimit: config.RateLimitConfig{
				Enabled: false,
				Backend: config.RateLimitBackendMemory,
			},
		},
		Metrics: config.MetricsConfig{Path: "/metrics"},
	}
}

func setupTestRouter(t *testing.T, authEnabled bool) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := customer.NewStore(context.Background(), emptyRepository{}, nil, logger)
	router, err := SetupRouter(store, testConfig(authEnabled), nil, logger)
	require.NoError(t, err)
	return router
}

func serve(router http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	router := setupTestRouter(t, true)

	rec := serve(router, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Customers)
	assert.Equal(t, "Customer manager is running with 0 customers loaded.", resp.Message)
}

func TestRouter_APIRequiresToken(t *testing.T) {
	router := setupTestRouter(t, true)

	rec := serve(router, http.MethodGet, "/api/customers", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodPost, "/auth/token", `{"username":"ops"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tokenResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokenResp))

	rec = serve(router, http.MethodPost, "/api/customers", `{"name":"ana","email":"ana@example.com","balance":"10"}`, tokenResp.Token)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(router, http.MethodGet, "/api/customers/ana@example.com", "", tokenResp.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/api/statistics", "", tokenResp.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalCustomers":1`)
}

func TestRouter_HTMLPagesArePublic(t *testing.T) {
	router := setupTestRouter(t, true)

	rec := serve(router, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = serve(router, http.MethodGet, "/customers/new", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_OpsEndpoints(t *testing.T) {
	router := setupTestRouter(t, false)

	rec := serve(router, http.MethodGet, "/swagger", "", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/swagger/index.html", rec.Header().Get("Location"))

	rec = serve(router, http.MethodGet, "/swagger/doc.json", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/customers/{email}/purchases")

	serve(router, http.MethodGet, "/api/customers", "", "")
	rec = serve(router, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer_manager_http_requests_total")
}
