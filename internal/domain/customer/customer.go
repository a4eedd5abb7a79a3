package customer

import (
	"customer-manager/internal/pkg/apperrors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Customer is a regular customer. The zero value is not usable; build one
// with NewCustomer.
type Customer struct {
	name         string
	email        string
	address      string
	balance      decimal.Decimal
	registeredAt time.Time
	active       bool
	history      []PurchaseRecord
}

func NewCustomer(name, email, address string, initialBalance decimal.Decimal) (*Customer, error) {
	normalizedEmail := NormalizeEmail(email)
	if !emailPattern.MatchString(normalizedEmail) {
		return nil, apperrors.NewValidationError("email", "invalid email format")
	}
	if initialBalance.IsNegative() {
		return nil, apperrors.NewValidationError("balance", "balance cannot be negative")
	}

	return &Customer{
		name:         NormalizeName(name),
		email:        normalizedEmail,
		address:      strings.TrimSpace(address),
		balance:      initialBalance,
		registeredAt: time.Now(),
		active:       true,
		history:      make([]PurchaseRecord, 0),
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName title-cases each word. A cases.Caser keeps state between
// calls, so one is built per call. Letters after an apostrophe stay lower
// case ("o'brien" becomes "O'brien").
func NormalizeName(name string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(name))
}

func (c *Customer) Name() string             { return c.name }
func (c *Customer) Email() string            { return c.email }
func (c *Customer) Address() string          { return c.address }
func (c *Customer) Balance() decimal.Decimal { return c.balance }
func (c *Customer) RegisteredAt() time.Time  { return c.registeredAt }
func (c *Customer) IsActive() bool           { return c.active }
func (c *Customer) Kind() Kind               { return KindRegular }

func (c *Customer) Activate() {
	c.active = true
}

func (c *Customer) Deactivate() {
	c.active = false
}

func (c *Customer) Purchase(amount decimal.Decimal) (PurchaseOutcome, error) {
	if err := requirePositive("amount", amount); err != nil {
		return PurchaseOutcome{}, err
	}

	if amount.GreaterThan(c.balance) {
		return PurchaseOutcome{
			Approved:         false,
			Amount:           amount,
			Available:        c.balance,
			Required:         amount,
			RemainingBalance: c.balance,
		}, nil
	}

	c.balance = c.balance.Sub(amount)
	c.history = append(c.history, PurchaseRecord{
		Timestamp:        time.Now(),
		Amount:           amount,
		RemainingBalance: c.balance,
	})

	return PurchaseOutcome{
		Approved:         true,
		Amount:           amount,
		Available:        c.balance.Add(amount),
		Required:         amount,
		RemainingBalance: c.balance,
	}, nil
}

func (c *Customer) Recharge(amount decimal.Decimal) (RechargeOutcome, error) {
	if err := requirePositive("amount", amount); err != nil {
		return RechargeOutcome{}, err
	}

	c.balance = c.balance.Add(amount)
	return RechargeOutcome{Amount: amount, NewBalance: c.balance}, nil
}

func (c *Customer) TotalPurchased() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.history {
		total = total.Add(p.Amount)
	}
	return total
}

// History returns a copy of the purchase history in insertion order.
func (c *Customer) History() []PurchaseRecord {
	out := make([]PurchaseRecord, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Customer) AgeInDays(now time.Time) int {
	if now.Before(c.registeredAt) {
		return 0
	}
	return int(now.Sub(c.registeredAt).Hours() / 24)
}

func (c *Customer) String() string {
	return fmt.Sprintf("%s | %s | $%s | %s", c.name, c.email, c.balance.StringFixed(2), statusLabel(c.active))
}

func statusLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.NewValidationError(field, "amount must be greater than 0")
	}
	return nil
}
