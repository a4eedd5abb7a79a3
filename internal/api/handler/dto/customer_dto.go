package dto

import (
	"customer-manager/internal/domain/customer"
	"time"

	"github.com/shopspring/decimal"
)

// RegisterCustomerRequest creates a regular customer, or a VIP when VIP is
// set. Balance defaults to zero and DiscountRate to 10%.
type RegisterCustomerRequest struct {
	Name         string           `json:"name" validate:"required,max=200"`
	Email        string           `json:"email" validate:"required,max=254"`
	Address      string           `json:"address" validate:"max=500"`
	Balance      *decimal.Decimal `json:"balance,omitempty" swaggertype:"string" example:"100.00"`
	VIP          bool             `json:"vip"`
	DiscountRate *decimal.Decimal `json:"discountRate,omitempty" swaggertype:"string" example:"0.15"`
}

type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required" swaggertype:"string" example:"25.50"`
}

type DiscountRequest struct {
	DiscountRate *decimal.Decimal `json:"discountRate" validate:"required" swaggertype:"string" example:"0.20"`
}

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CustomerResponse struct {
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	Balance        string    `json:"balance"`
	RegisteredAt   time.Time `json:"registeredAt"`
	Active         bool      `json:"active"`
	Type           string    `json:"type"`
	TotalPurchased string    `json:"totalPurchased"`
	Purchases      int       `json:"purchases"`
	AgeInDays      int       `json:"ageInDays"`
	DiscountRate   *string   `json:"discountRate,omitempty"`
	Tier           string    `json:"tier,omitempty"`
	TotalSavings   *string   `json:"totalSavings,omitempty"`
}

func NewCustomerResponse(acc customer.Account, now time.Time) CustomerResponse {
	if acc == nil {
		return CustomerResponse{}
	}

	resp := CustomerResponse{
		Name:           acc.Name(),
		Email:          acc.Email(),
		Address:        acc.Address(),
		Balance:        acc.Balance().StringFixed(2),
		RegisteredAt:   acc.RegisteredAt(),
		Active:         acc.IsActive(),
		Type:           string(acc.Kind()),
		TotalPurchased: acc.TotalPurchased().StringFixed(2),
		Purchases:      len(acc.History()),
		AgeInDays:      acc.AgeInDays(now),
	}

	if vip, ok := acc.(*customer.VIPCustomer); ok {
		rate := vip.DiscountRate().String()
		savings := vip.TotalSavings().StringFixed(2)
		resp.DiscountRate = &rate
		resp.Tier = string(vip.Tier())
		resp.TotalSavings = &savings
	}
	return resp
}

func NewCustomerListResponse(accounts []customer.Account, now time.Time) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, NewCustomerResponse(acc, now))
	}
	return out
}

// OutcomeResponse reports a store operation that did not fail validation,
// whether or not it succeeded.
type OutcomeResponse struct {
	Status  string `json:"status"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

func NewOutcomeResponse(o customer.Outcome) OutcomeResponse {
	return OutcomeResponse{
		Status:  string(o.Status),
		Email:   o.Email,
		Name:    o.Name,
		Message: o.Message,
	}
}

type RegisterResponse struct {
	OutcomeResponse
	Customer CustomerResponse `json:"customer"`
}

type PurchaseResponse struct {
	OutcomeResponse
	Approved         bool    `json:"approved"`
	Amount           string  `json:"amount,omitempty"`
	Available        string  `json:"available,omitempty"`
	Required         string  `json:"required,omitempty"`
	RemainingBalance string  `json:"remainingBalance,omitempty"`
	OriginalAmount   *string `json:"originalAmount,omitempty"`
	DiscountRate     *string `json:"discountRate,omitempty"`
	Savings          *string `json:"savings,omitempty"`
}

func NewPurchaseResponse(result customer.PurchaseOutcome, o customer.Outcome) PurchaseResponse {
	resp := PurchaseResponse{
		OutcomeResponse: NewOutcomeResponse(o),
		Approved:        result.Approved,
	}

	if !result.Approved {
		resp.Available = result.Available.StringFixed(2)
		resp.Required = result.Required.StringFixed(2)
		return resp
	}

	resp.Amount = result.Amount.StringFixed(2)
	resp.RemainingBalance = result.RemainingBalance.StringFixed(2)
	if result.Discounted {
		original := result.OriginalAmount.StringFixed(2)
		rate := result.DiscountRate.String()
		savings := result.Savings.StringFixed(2)
		resp.OriginalAmount = &original
		resp.DiscountRate = &rate
		resp.Savings = &savings
	}
	return resp
}

type RechargeResponse struct {
	OutcomeResponse
	Amount     string `json:"amount"`
	NewBalance string `json:"newBalance"`
}

func NewRechargeResponse(result customer.RechargeOutcome, o customer.Outcome) RechargeResponse {
	return RechargeResponse{
		OutcomeResponse: NewOutcomeResponse(o),
		Amount:          result.Amount.StringFixed(2),
		NewBalance:      result.NewBalance.StringFixed(2),
	}
}

type DiscountResponse struct {
	OutcomeResponse
	OldRate string `json:"oldRate"`
	NewRate string `json:"newRate"`
	Tier    string `json:"tier"`
}

func NewDiscountResponse(update customer.DiscountUpdate, o customer.Outcome) DiscountResponse {
	return DiscountResponse{
		OutcomeResponse: NewOutcomeResponse(o),
		OldRate:         update.OldRate.String(),
		NewRate:         update.NewRate.String(),
		Tier:            string(update.Tier),
	}
}

type StatisticsResponse struct {
	TotalCustomers    int    `json:"totalCustomers"`
	ActiveCustomers   int    `json:"activeCustomers"`
	InactiveCustomers int    `json:"inactiveCustomers"`
	VIPCustomers      int    `json:"vipCustomers"`
	RegularCustomers  int    `json:"regularCustomers"`
	TotalBalance      string `json:"totalBalance"`
	TotalPurchased    string `json:"totalPurchased"`
	TotalVIPSavings   string `json:"totalVipSavings"`
	AverageBalance    string `json:"averageBalance"`
	AveragePurchased  string `json:"averagePurchased"`
}

func NewStatisticsResponse(stats customer.Statistics) StatisticsResponse {
	return StatisticsResponse{
		TotalCustomers:    stats.TotalCustomers,
		ActiveCustomers:   stats.ActiveCustomers,
		InactiveCustomers: stats.InactiveCustomers,
		VIPCustomers:      stats.VIPCustomers,
		RegularCustomers:  stats.RegularCustomers,
		TotalBalance:      stats.TotalBalance.StringFixed(2),
		TotalPurchased:    stats.TotalPurchased.StringFixed(2),
		TotalVIPSavings:   stats.TotalVIPSavings.StringFixed(2),
		AverageBalance:    stats.AverageBalance.StringFixed(2),
		AveragePurchased:  stats.AveragePurchased.StringFixed(2),
	}
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
