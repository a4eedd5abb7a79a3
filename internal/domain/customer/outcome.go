package customer

import (
	"customer-manager/internal/pkg/apperrors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PurchaseOutcome is returned for every well-formed purchase. A declined
// purchase is not an error: Approved is false and nothing was mutated.
type PurchaseOutcome struct {
	Approved         bool
	Amount           decimal.Decimal
	Available        decimal.Decimal
	Required         decimal.Decimal
	RemainingBalance decimal.Decimal

	Discounted     bool
	OriginalAmount decimal.Decimal
	DiscountRate   decimal.Decimal
	Savings        decimal.Decimal
}

func (o PurchaseOutcome) Message() string {
	if !o.Approved {
		if o.Discounted {
			return fmt.Sprintf("Insufficient balance. Available: $%s, required with discount: $%s",
				o.Available.StringFixed(2), o.Required.StringFixed(2))
		}
		return fmt.Sprintf("Insufficient balance. Available: $%s, required: $%s",
			o.Available.StringFixed(2), o.Required.StringFixed(2))
	}
	if o.Discounted {
		return fmt.Sprintf("VIP purchase approved | Original: $%s | Discount: %s%% | Final: $%s | Savings: $%s | Balance: $%s",
			o.OriginalAmount.StringFixed(2), percent(o.DiscountRate), o.Amount.StringFixed(2),
			o.Savings.StringFixed(2), o.RemainingBalance.StringFixed(2))
	}
	return fmt.Sprintf("Purchase approved for $%s. Remaining balance: $%s",
		o.Amount.StringFixed(2), o.RemainingBalance.StringFixed(2))
}

type RechargeOutcome struct {
	Amount     decimal.Decimal
	NewBalance decimal.Decimal
}

func (o RechargeOutcome) Message() string {
	return fmt.Sprintf("Balance recharged: $%s. Total: $%s", o.Amount.StringFixed(2), o.NewBalance.StringFixed(2))
}

type DiscountUpdate struct {
	OldRate decimal.Decimal
	NewRate decimal.Decimal
	Tier    Tier
}

func (u DiscountUpdate) Message() string {
	return fmt.Sprintf("Discount updated: %s%% -> %s%% | New tier: %s", percent(u.OldRate), percent(u.NewRate), u.Tier)
}

// Status classifies the result of a store operation.
type Status string

const (
	StatusOK        Status = "ok"
	StatusDuplicate Status = "duplicate"
	StatusNotFound  Status = "not_found"
	StatusDeclined  Status = "declined"
	StatusNotVIP    Status = "not_vip"
)

// Outcome is what store operations return for expected business results,
// successful or not.
type Outcome struct {
	Status  Status
	Email   string
	Name    string
	Message string
}

func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// Err returns nil for StatusOK and otherwise the matching apperrors sentinel
// wrapped with the outcome message.
func (o Outcome) Err() error {
	var sentinel error
	switch o.Status {
	case StatusOK:
		return nil
	case StatusNotFound:
		sentinel = apperrors.ErrNotFound
	case StatusDuplicate:
		sentinel = apperrors.ErrAlreadyExists
	case StatusNotVIP:
		sentinel = apperrors.ErrConflict
	case StatusDeclined:
		sentinel = apperrors.ErrInsufficientFunds
	default:
		return fmt.Errorf("unknown outcome status %q: %s", o.Status, o.Message)
	}
	return fmt.Errorf("%w: %s", sentinel, o.Message)
}

func percent(rate decimal.Decimal) string {
	return rate.Shift(2).StringFixed(0)
}
