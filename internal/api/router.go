package api

import (
	"customer-manager/internal/api/handler"
	mw "customer-manager/internal/api/middleware"
	"customer-manager/internal/config"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "customer-manager/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Customers int    `json:"customers"`
}

// SetupRouter wires middleware, the JSON API, the HTML pages and the ops
// endpoints. redisClient may be nil unless the redis rate limit backend is
// configured.
func SetupRouter(store handler.CustomerStore, cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) (*chi.Mux, error) {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, redisClient, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupCustomerRoutes(router, cfg, store, logger)
	if err := setupWebRoutes(router, store, logger); err != nil {
		return nil, err
	}
	router.Get("/health", healthHandler(store))
	setupSwaggerEndpoint(router, logger)

	return router, nil
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiter(cfg.Server.RateLimit, redisClient, logger))
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCustomerRoutes(router *chi.Mux, cfg *config.Config, store handler.CustomerStore, logger *slog.Logger) {
	h := handler.NewCustomerHandler(store, logger)

	router.Route("/api", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/statistics", h.GetStatistics)
		r.Route("/customers", func(r chi.Router) {
			r.Post("/", h.RegisterCustomer)
			r.Get("/", h.ListCustomers)
			r.Get("/search", h.SearchCustomers)
			r.Get("/top", h.TopCustomers)
			r.Get("/oldest", h.OldestCustomers)
			r.Route("/{email}", func(r chi.Router) {
				r.Get("/", h.GetCustomer)
				r.Delete("/", h.RemoveCustomer)
				r.Put("/activate", h.ActivateCustomer)
				r.Put("/deactivate", h.DeactivateCustomer)
				r.Post("/purchases", h.Purchase)
				r.Post("/recharges", h.Recharge)
				r.Put("/discount", h.UpdateDiscount)
			})
		})
	})
}

func setupWebRoutes(router *chi.Mux, store handler.CustomerStore, logger *slog.Logger) error {
	h, err := handler.NewWebHandler(store, logger)
	if err != nil {
		return fmt.Errorf("setting up web routes: %w", err)
	}

	router.Get("/", h.Dashboard)
	router.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Get("/new", h.NewCustomerForm)
		r.Get("/search", h.SearchCustomers)
	})
	return nil
}

func healthHandler(store handler.CustomerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := store.Len()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:    "ok",
			Message:   fmt.Sprintf("Customer manager is running with %d customers loaded.", n),
			Customers: n,
		})
	}
}
