package customer

import (
	"customer-manager/internal/pkg/apperrors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Record is the persisted shape of an Account: the shared fields plus a
// Type discriminator, with DiscountRate and Tier present only for VIPs.
// Purchase history is not persisted.
type Record struct {
	Name         string
	Email        string
	Address      string
	Balance      decimal.Decimal
	RegisteredAt time.Time
	Active       bool
	Type         Kind
	DiscountRate *decimal.Decimal
	Tier         Tier
}

func NewRecord(acc Account) Record {
	rec := Record{
		Name:         acc.Name(),
		Email:        acc.Email(),
		Address:      acc.Address(),
		Balance:      acc.Balance(),
		RegisteredAt: acc.RegisteredAt(),
		Active:       acc.IsActive(),
		Type:         acc.Kind(),
	}

	if vip, ok := acc.(*VIPCustomer); ok {
		rate := vip.DiscountRate()
		rec.DiscountRate = &rate
		rec.Tier = vip.Tier()
	}
	return rec
}

func (r Record) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown customer type %q", apperrors.ErrInvalidArgument, r.Type)
	}
	if r.RegisteredAt.IsZero() {
		return apperrors.NewValidationError("registeredAt", "registration timestamp is required")
	}
	if r.Type == KindVIP && r.DiscountRate == nil {
		return apperrors.NewValidationError("discountRate", "VIP record requires a discount rate")
	}
	return nil
}

// ToAccount rebuilds the customer through the regular constructors, so a
// record that breaks a domain invariant is rejected, then restores the
// registration time and status. The tier is derived again from the rate.
func (r Record) ToAccount() (Account, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	switch r.Type {
	case KindVIP:
		vip, err := NewVIPCustomer(r.Name, r.Email, r.Address, r.Balance, *r.DiscountRate)
		if err != nil {
			return nil, err
		}
		vip.registeredAt = r.RegisteredAt
		vip.active = r.Active
		return vip, nil
	default:
		c, err := NewCustomer(r.Name, r.Email, r.Address, r.Balance)
		if err != nil {
			return nil, err
		}
		c.registeredAt = r.RegisteredAt
		c.active = r.Active
		return c, nil
	}
}
