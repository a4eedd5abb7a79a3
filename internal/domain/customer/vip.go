package customer

import (
	"customer-manager/internal/pkg/apperrors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var DefaultDiscountRate = decimal.RequireFromString("0.10")

// VIPCustomer is a customer whose purchases are discounted by DiscountRate.
// Its tier is recomputed whenever the rate changes.
type VIPCustomer struct {
	Customer
	discountRate decimal.Decimal
	tier         Tier
}

func NewVIPCustomer(name, email, address string, initialBalance, discountRate decimal.Decimal) (*VIPCustomer, error) {
	base, err := NewCustomer(name, email, address, initialBalance)
	if err != nil {
		return nil, err
	}
	if err := validateDiscountRate(discountRate); err != nil {
		return nil, err
	}

	return &VIPCustomer{
		Customer:     *base,
		discountRate: discountRate,
		tier:         TierForRate(discountRate),
	}, nil
}

func (v *VIPCustomer) DiscountRate() decimal.Decimal { return v.discountRate }
func (v *VIPCustomer) Tier() Tier                    { return v.tier }
func (v *VIPCustomer) Kind() Kind                    { return KindVIP }

// Purchase charges amount*(1-DiscountRate). The balance check is made
// against the discounted amount.
func (v *VIPCustomer) Purchase(amount decimal.Decimal) (PurchaseOutcome, error) {
	if err := requirePositive("amount", amount); err != nil {
		return PurchaseOutcome{}, err
	}

	final := amount.Mul(decimal.NewFromInt(1).Sub(v.discountRate))
	savings := amount.Sub(final)

	outcome := PurchaseOutcome{
		Amount:         final,
		Available:      v.balance,
		Required:       final,
		Discounted:     true,
		OriginalAmount: amount,
		DiscountRate:   v.discountRate,
		Savings:        savings,
	}

	if final.GreaterThan(v.balance) {
		outcome.RemainingBalance = v.balance
		return outcome, nil
	}

	v.balance = v.balance.Sub(final)
	v.history = append(v.history, PurchaseRecord{
		Timestamp:        time.Now(),
		Amount:           final,
		RemainingBalance: v.balance,
		Discounted:       true,
		OriginalAmount:   amount,
		FinalAmount:      final,
		Savings:          savings,
	})

	outcome.Approved = true
	outcome.RemainingBalance = v.balance
	return outcome, nil
}

func (v *VIPCustomer) TotalSavings() decimal.Decimal {
	total := decimal.Zero
	for _, p := range v.history {
		total = total.Add(p.Savings)
	}
	return total
}

func (v *VIPCustomer) UpdateDiscount(newRate decimal.Decimal) (DiscountUpdate, error) {
	if err := validateDiscountRate(newRate); err != nil {
		return DiscountUpdate{}, err
	}

	old := v.discountRate
	v.discountRate = newRate
	v.tier = TierForRate(newRate)

	return DiscountUpdate{OldRate: old, NewRate: newRate, Tier: v.tier}, nil
}

func (v *VIPCustomer) String() string {
	return fmt.Sprintf("%s (VIP %s) | %s | $%s | %s%% off | %s",
		v.name, v.tier, v.email, v.balance.StringFixed(2), percent(v.discountRate), statusLabel(v.active))
}

func validateDiscountRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return apperrors.NewValidationError("discountRate", "discount rate must be between 0 and 1")
	}
	return nil
}
