package customer

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the persisted discriminator between the two customer variants.
type Kind string

const (
	KindRegular Kind = "Regular"
	KindVIP     Kind = "VIP"
)

func (k Kind) Valid() bool {
	return k == KindRegular || k == KindVIP
}

// Account is the behaviour shared by regular and VIP customers. Code that
// needs discount or savings data type-switches on *VIPCustomer.
type Account interface {
	Name() string
	Email() string
	Address() string
	Balance() decimal.Decimal
	RegisteredAt() time.Time
	IsActive() bool
	Activate()
	Deactivate()
	Purchase(amount decimal.Decimal) (PurchaseOutcome, error)
	Recharge(amount decimal.Decimal) (RechargeOutcome, error)
	TotalPurchased() decimal.Decimal
	History() []PurchaseRecord
	AgeInDays(now time.Time) int
	Kind() Kind
	String() string
}

var (
	_ Account = (*Customer)(nil)
	_ Account = (*VIPCustomer)(nil)
)

// PurchaseRecord is one entry of a customer's purchase history. Amount is
// always what was debited; the discount fields are only set for VIP
// purchases, where Amount equals FinalAmount.
type PurchaseRecord struct {
	Timestamp        time.Time
	Amount           decimal.Decimal
	RemainingBalance decimal.Decimal
	Discounted       bool
	OriginalAmount   decimal.Decimal
	FinalAmount      decimal.Decimal
	Savings          decimal.Decimal
}

// snapshot copies acc, history included, so it can be read after the store
// lock is released while the store keeps mutating its own instance.
func snapshot(acc Account) Account {
	switch a := acc.(type) {
	case *VIPCustomer:
		c := *a
		c.history = slices.Clone(a.history)
		return &c
	case *Customer:
		c := *a
		c.history = slices.Clone(a.history)
		return &c
	}
	return acc
}

func snapshots(accounts []Account) []Account {
	out := make([]Account, len(accounts))
	for i, acc := range accounts {
		out[i] = snapshot(acc)
	}
	return out
}
