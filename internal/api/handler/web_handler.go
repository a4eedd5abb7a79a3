package handler

import (
	"bytes"
	"customer-manager/internal/api/handler/dto"
	"customer-manager/internal/domain/customer"
	"customer-manager/internal/pkg/apperrors"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// WebHandler serves the HTML pages. It shares the store with the JSON API.
type WebHandler struct {
	store  CustomerStore
	logger *slog.Logger
	pages  map[string]*template.Template
}

type registerForm struct {
	Name         string
	Email        string
	Address      string
	Balance      string
	VIP          bool
	DiscountRate string
}

type pageData struct {
	Title     string
	Query     string
	Flash     string
	FlashOK   bool
	Stats     *dto.StatisticsResponse
	Customers []dto.CustomerResponse
	Form      registerForm
}

func NewWebHandler(s CustomerStore, l *slog.Logger) (*WebHandler, error) {
	if s == nil {
		return nil, errors.New("customer store cannot be nil")
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"dashboard", "list", "form"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &WebHandler{
		store:  s,
		logger: l.With("component", "WebHandler"),
		pages:  pages,
	}, nil
}

func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, page+".html", data); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Dashboard handles GET /
func (h *WebHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats := dto.NewStatisticsResponse(h.store.Statistics())
	h.render(w, r, http.StatusOK, "dashboard", pageData{
		Title:     "Dashboard",
		Stats:     &stats,
		Customers: dto.NewCustomerListResponse(h.store.TopByBalance(customer.DefaultRankingLimit), time.Now()),
	})
}

// ListCustomers handles GET /customers
func (h *WebHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	accounts := h.store.List(false)
	customer.SortByName(accounts)

	data := pageData{
		Title:     "Customers",
		Customers: dto.NewCustomerListResponse(accounts, time.Now()),
	}
	if msg := r.URL.Query().Get("registered"); msg != "" {
		data.Flash, data.FlashOK = fmt.Sprintf("Customer %s registered.", msg), true
	}
	h.render(w, r, http.StatusOK, "list", data)
}

// SearchCustomers handles GET /customers/search?q=
func (h *WebHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := pageData{Title: "Search", Query: query}
	if query == "" {
		data.Flash = "Enter a name to search for."
		h.render(w, r, http.StatusOK, "list", data)
		return
	}

	data.Title = fmt.Sprintf("Search results for %q", query)
	data.Customers = dto.NewCustomerListResponse(h.store.SearchByName(query), time.Now())
	h.render(w, r, http.StatusOK, "list", data)
}

// NewCustomerForm handles GET /customers/new
func (h *WebHandler) NewCustomerForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "form", pageData{
		Title: "Register customer",
		Form:  registerForm{DiscountRate: customer.DefaultDiscountRate.String()},
	})
}

// CreateCustomer handles POST /customers. Success redirects to the list;
// failures re-render the form with the submitted values.
func (h *WebHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.renderFormError(w, r, http.StatusBadRequest, registerForm{}, "Could not read the submitted form.")
		return
	}

	form := registerForm{
		Name:         r.PostForm.Get("name"),
		Email:        r.PostForm.Get("email"),
		Address:      r.PostForm.Get("address"),
		Balance:      r.PostForm.Get("balance"),
		DiscountRate: r.PostForm.Get("discountRate"),
	}
	form.VIP, _ = strconv.ParseBool(r.PostForm.Get("vip"))

	req, err := form.toRequest()
	if err == nil {
		err = validateStruct(&req)
	}
	var acc customer.Account
	if err == nil {
		acc, err = newAccount(req)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "Rejected registration form", slog.Any("error", err))
		h.renderFormError(w, r, http.StatusBadRequest, form, formErrorMessage(err))
		return
	}

	outcome := h.store.Register(ctx, acc)
	if !outcome.OK() {
		h.logger.WarnContext(ctx, "Registration form declined", slog.String("status", string(outcome.Status)))
		h.renderFormError(w, r, outcomeStatus(outcome, http.StatusOK), form, outcome.Message)
		return
	}

	h.logger.InfoContext(ctx, "Registered customer from form", slog.String("email", outcome.Email))
	http.Redirect(w, r, "/customers?registered="+outcome.Email, http.StatusSeeOther)
}

func (h *WebHandler) renderFormError(w http.ResponseWriter, r *http.Request, status int, form registerForm, msg string) {
	h.render(w, r, status, "form", pageData{
		Title: "Register customer",
		Flash: msg,
		Form:  form,
	})
}

func (f registerForm) toRequest() (dto.RegisterCustomerRequest, error) {
	req := dto.RegisterCustomerRequest{
		Name:    f.Name,
		Email:   f.Email,
		Address: f.Address,
		VIP:     f.VIP,
	}

	if s := strings.TrimSpace(f.Balance); s != "" {
		balance, err := decimal.NewFromString(s)
		if err != nil {
			return req, apperrors.NewValidationError("balance", "must be a number")
		}
		req.Balance = &balance
	}

	if s := strings.TrimSpace(f.DiscountRate); s != "" && f.VIP {
		rate, err := decimal.NewFromString(s)
		if err != nil {
			return req, apperrors.NewValidationError("discountRate", "must be a number")
		}
		req.DiscountRate = &rate
	}
	return req, nil
}

func formErrorMessage(err error) string {
	var validationError *apperrors.ValidationError
	if errors.As(err, &validationError) {
		return fmt.Sprintf("%s %s", validationError.Field, validationError.Message)
	}
	return err.Error()
}
