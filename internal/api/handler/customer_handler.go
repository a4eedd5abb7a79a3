package handler

import (
	"context"
	"customer-manager/internal/api/handler/dto"
	"customer-manager/internal/domain/customer"
	"customer-manager/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// CustomerStore is the part of *customer.Store the HTTP surface uses.
type CustomerStore interface {
	Register(ctx context.Context, acc customer.Account) customer.Outcome
	Find(email string) (customer.Account, bool)
	List(activeOnly bool) []customer.Account
	Remove(ctx context.Context, email string) customer.Outcome
	Activate(ctx context.Context, email string) customer.Outcome
	Deactivate(ctx context.Context, email string) customer.Outcome
	Purchase(ctx context.Context, email string, amount decimal.Decimal) (customer.PurchaseOutcome, customer.Outcome, error)
	Recharge(ctx context.Context, email string, amount decimal.Decimal) (customer.RechargeOutcome, customer.Outcome, error)
	UpdateDiscount(ctx context.Context, email string, rate decimal.Decimal) (customer.DiscountUpdate, customer.Outcome, error)
	TopByBalance(limit int) []customer.Account
	Oldest(limit int) []customer.Account
	SearchByName(query string) []customer.Account
	Statistics() customer.Statistics
	Len() int
}

var _ CustomerStore = (*customer.Store)(nil)

type CustomerHandler struct {
	store  CustomerStore
	logger *slog.Logger
}

func NewCustomerHandler(s CustomerStore, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer store cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		store:  s,
		logger: l.With("component", "CustomerHandler"),
	}
}

func getEmailFromURL(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "email")
	if raw == "" {
		return "", fmt.Errorf("%w: email not found in URL path", apperrors.ErrInvalidArgument)
	}
	email, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid email in URL path: %s", apperrors.ErrInvalidArgument, raw)
	}
	return email, nil
}

func getLimitFromQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return customer.DefaultRankingLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, apperrors.NewValidationError("limit", "must be a positive integer")
	}
	return limit, nil
}

// outcomeStatus maps a store outcome to its HTTP status.
func outcomeStatus(o customer.Outcome, okStatus int) int {
	if o.OK() {
		return okStatus
	}
	status, _, _ := errorStatus(o.Err())
	return status
}

func (h *CustomerHandler) logOutcome(ctx context.Context, msg string, o customer.Outcome) {
	level := slog.LevelInfo
	if !o.OK() {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg, slog.String("status", string(o.Status)), slog.String("email", o.Email))
}

// RegisterCustomer handles POST /api/customers
// @Summary Register a customer
// @Description Registers a regular customer, or a VIP customer when vip is true. The discount rate defaults to 0.10 for VIPs.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.RegisterCustomerRequest true "Customer registration request"
// @Success 201 {object} dto.RegisterResponse "Customer registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 409 {object} dto.OutcomeResponse "Email already registered"
// @Router /api/customers [post]
// @Security BearerAuth
func (h *CustomerHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.DebugContext(ctx, "Received register customer request")

	var req dto.RegisterCustomerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.logger.WarnContext(ctx, "Invalid register request", slog.Any("error", err))
		respondError(w, err)
		return
	}

	acc, err := newAccount(req)
	if err != nil {
		h.logger.WarnContext(ctx, "Validation failed for new customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	outcome := h.store.Register(ctx, acc)
	h.logOutcome(ctx, "Register customer finished", outcome)
	if !outcome.OK() {
		respondJSON(w, outcomeStatus(outcome, http.StatusCreated), dto.NewOutcomeResponse(outcome))
		return
	}

	respondJSON(w, http.StatusCreated, dto.RegisterResponse{
		OutcomeResponse: dto.NewOutcomeResponse(outcome),
		Customer:        dto.NewCustomerResponse(acc, time.Now()),
	})
}

func newAccount(req dto.RegisterCustomerRequest) (customer.Account, error) {
	balance := decimal.Zero
	if req.Balance != nil {
		balance = *req.Balance
	}

	if !req.VIP {
		if req.DiscountRate != nil {
			return nil, apperrors.NewValidationError("discountRate", "only applies to VIP customers")
		}
		return customer.NewCustomer(req.Name, req.Email, req.Address, balance)
	}

	rate := customer.DefaultDiscountRate
	if req.DiscountRate != nil {
		rate = *req.DiscountRate
	}
	return customer.NewVIPCustomer(req.Name, req.Email, req.Address, balance, rate)
}

// ListCustomers handles GET /api/customers
// @Summary List customers
// @Description Lists customers sorted by name. With active=true only active customers are returned.
// @Tags Customers
// @Produce json
// @Param active query bool false "Only active customers"
// @Success 200 {array} dto.CustomerResponse "Customers"
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameter"
// @Router /api/customers [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, apperrors.NewValidationError("active", "must be true or false"))
			return
		}
		activeOnly = parsed
	}

	accounts := h.store.List(activeOnly)
	customer.SortByName(accounts)

	h.logger.DebugContext(r.Context(), "Listed customers", slog.Int("count", len(accounts)), slog.Bool("activeOnly", activeOnly))
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(accounts, time.Now()))
}

// SearchCustomers handles GET /api/customers/search
// @Summary Search customers by name
// @Description Case-insensitive substring match on the customer name, sorted by name.
// @Tags Customers
// @Produce json
// @Param name query string true "Name fragment"
// @Success 200 {array} dto.CustomerResponse "Matching customers"
// @Failure 400 {object} dto.ErrorResponse "Missing name parameter"
// @Router /api/customers/search [get]
// @Security BearerAuth
func (h *CustomerHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("name")
	if query == "" {
		respondError(w, apperrors.NewValidationError("name", "is required"))
		return
	}

	accounts := h.store.SearchByName(query)
	h.logger.DebugContext(r.Context(), "Searched customers", slog.String("query", query), slog.Int("count", len(accounts)))
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(accounts, time.Now()))
}

// TopCustomers handles GET /api/customers/top
// @Summary Customers with the highest balance
// @Tags Customers
// @Produce json
// @Param limit query int false "Maximum number of customers" default(5)
// @Success 200 {array} dto.CustomerResponse "Customers by balance, highest first"
// @Failure 400 {object} dto.ErrorResponse "Invalid limit"
// @Router /api/customers/top [get]
// @Security BearerAuth
func (h *CustomerHandler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	limit, err := getLimitFromQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(h.store.TopByBalance(limit), time.Now()))
}

// OldestCustomers handles GET /api/customers/oldest
// @Summary Longest-registered customers
// @Tags Customers
// @Produce json
// @Param limit query int false "Maximum number of customers" default(5)
// @Success 200 {array} dto.CustomerResponse "Customers by registration date, oldest first"
// @Failure 400 {object} dto.ErrorResponse "Invalid limit"
// @Router /api/customers/oldest [get]
// @Security BearerAuth
func (h *CustomerHandler) OldestCustomers(w http.ResponseWriter, r *http.Request) {
	limit, err := getLimitFromQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(h.store.Oldest(limit), time.Now()))
}

// GetCustomer handles GET /api/customers/{email}
// @Summary Find a customer by email
// @Tags Customers
// @Produce json
// @Param email path string true "Customer email"
// @Success 200 {object} dto.CustomerResponse "Customer details"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /api/customers/{email} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	email, err := getEmailFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	acc, ok := h.store.Find(email)
	if !ok {
		h.logger.WarnContext(r.Context(), "Customer not found", slog.String("email", email))
		respondError(w, fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, email))
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(acc, time.Now()))
}

// RemoveCustomer handles DELETE /api/customers/{email}
// @Summary Remove a customer
// @Tags Customers
// @Produce json
// @Param email path string true "Customer email"
// @Success 200 {object} dto.OutcomeResponse "Customer removed"
// @Failure 404 {object} dto.OutcomeResponse "Customer not found"
// @Router /api/customers/{email} [delete]
// @Security BearerAuth
func (h *CustomerHandler) RemoveCustomer(w http.ResponseWriter, r *http.Request) {
	h.applyOutcome(w, r, "Remove customer finished", h.store.Remove)
}

// ActivateCustomer handles PUT /api/customers/{email}/activate
// @Summary Activate a customer
// @Tags Customers
// @Produce json
// @Param email path string true "Customer email"
// @Success 200 {object} dto.OutcomeResponse "Customer activated"
// @Failure 404 {object} dto.OutcomeResponse "Customer not found"
// @Router /api/customers/{email}/activate [put]
// @Security BearerAuth
func (h *CustomerHandler) ActivateCustomer(w http.ResponseWriter, r *http.Request) {
	h.applyOutcome(w, r, "Activate customer finished", h.store.Activate)
}

// DeactivateCustomer handles PUT /api/customers/{email}/deactivate
// @Summary Deactivate a customer
// @Tags Customers
// @Produce json
// @Param email path string true "Customer email"
// @Success 200 {object} dto.OutcomeResponse "Customer deactivated"
// @Failure 404 {object} dto.OutcomeResponse "Customer not found"
// @Router /api/customers/{email}/deactivate [put]
// @Security BearerAuth
func (h *CustomerHandler) DeactivateCustomer(w http.ResponseWriter, r *http.Request) {
	h.applyOutcome(w, r, "Deactivate customer finished", h.store.Deactivate)
}

func (h *CustomerHandler) applyOutcome(w http.ResponseWriter, r *http.Request, msg string, op func(context.Context, string) customer.Outcome) {
	email, err := getEmailFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	outcome := op(r.Context(), email)
	h.logOutcome(r.Context(), msg, outcome)
	respondJSON(w, outcomeStatus(outcome, http.StatusOK), dto.NewOutcomeResponse(outcome))
}

// Purchase handles POST /api/customers/{email}/purchases
// @Summary Make a purchase
// @Description Debits the customer balance. VIP customers pay the amount minus their discount. A purchase above the balance is declined with 422 and nothing changes.
// @Tags Customers
// @Accept json
// @Produce json
// @Param email path string true "Customer email"
// @Param request body dto.AmountRequest true "Purchase amount"
// @Success 200 {object} dto.PurchaseResponse "Purchase approved"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount"
// @Failure 404 {object} dto.OutcomeResponse "Customer not found"
// @Failure 422 {object} dto.PurchaseResponse "Insufficient balance"
// @Router /api/customers/{email}/purchases [post]
// @Security BearerAuth
func (h *CustomerHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, err := getEmailFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.AmountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, outcome, err := h.store.Purchase(ctx, email, *req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "Purchase rejected", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logOutcome(ctx, "Purchase finished", outcome)
	if outcome.Status == customer.StatusNotFound {
		respondJSON(w, http.StatusNotFound, dto.NewOutcomeResponse(outcome))
		return
	}
	respondJSON(w, outcomeStatus(outcome, http.StatusOK), dto.NewPurchaseResponse(result, outcome))
}

// Recharge handles POST /api/customers/{email}/recharges
// @Summary Recharge a balance
// @Tags Customers
// @Accept json
// @Produce json
// @Param email path string true "Customer email"
// @Param request body dto.AmountRequest true "Recharge amount"
// @Success 200 {object} dto.RechargeResponse "Balance recharged"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount"
// @Failure 404 {object} dto.OutcomeResponse "Customer not found"
// @Router /api/customers/{email}/recharges [post]
// @Security BearerAuth
func (h *CustomerHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, err := getEmailFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.AmountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, outcome, err := h.store.Recharge(ctx, email, *req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "Recharge rejected", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logOutcome(ctx, "Recharge finished", outcome)
	if !outcome.OK() {
		respondJSON(w, outcomeStatus(outcome, http.StatusOK), dto.NewOutcomeResponse(outcome))
		return
	}
	respondJSON(w, http.StatusOK, dto.NewRechargeResponse(result, outcome))
}

// UpdateDiscount handles PUT /api/customers/{email}/discount
// @Summary Change a VIP discount rate
// @Description Sets a new discount rate in [0, 1] and recomputes the tier.
// @Tags Customers
// @Accept json
// @Produce json
// @Param email path string true "Customer email"
// @Param request body dto.DiscountRequest true "New discount rate"
// @Success 200 {object} dto.DiscountResponse "Discount updated"
// @Failure 400 {object} dto.ErrorResponse "Rate out of range"
// @Failure 404 {object} dto.OutcomeResponse "Customer not found"
// @Failure 409 {object} dto.OutcomeResponse "Customer is not VIP"
// @Router /api/customers/{email}/discount [put]
// @Security BearerAuth
func (h *CustomerHandler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, err := getEmailFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.DiscountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	update, outcome, err := h.store.UpdateDiscount(ctx, email, *req.DiscountRate)
	if err != nil {
		h.logger.WarnContext(ctx, "Discount update rejected", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logOutcome(ctx, "Discount update finished", outcome)
	if !outcome.OK() {
		respondJSON(w, outcomeStatus(outcome, http.StatusOK), dto.NewOutcomeResponse(outcome))
		return
	}
	respondJSON(w, http.StatusOK, dto.NewDiscountResponse(update, outcome))
}

// GetStatistics handles GET /api/statistics
// @Summary Store statistics
// @Description Totals and averages over every customer. VIP counts and savings include inactive VIPs.
// @Tags Statistics
// @Produce json
// @Success 200 {object} dto.StatisticsResponse "Statistics"
// @Router /api/statistics [get]
// @Security BearerAuth
func (h *CustomerHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.NewStatisticsResponse(h.store.Statistics()))
}
