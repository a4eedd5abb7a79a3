package main

import (
	"bufio"
	"context"
	"customer-manager/internal/domain/customer"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const separator = "--------------------------------------------------------------------------------"

var (
	minConsoleDiscount = decimal.RequireFromString("0.05")
	maxConsoleDiscount = decimal.RequireFromString("0.25")
)

// errInputClosed ends the session when stdin runs out mid-prompt.
var errInputClosed = errors.New("input closed")

type console struct {
	store *customer.Store
	in    *bufio.Scanner
	out   io.Writer
	now   func() time.Time
}

func newConsole(store *customer.Store, in io.Reader, out io.Writer) *console {
	return &console{
		store: store,
		in:    bufio.NewScanner(in),
		out:   out,
		now:   time.Now,
	}
}

type menuEntry struct {
	key    string
	label  string
	action func(context.Context) error
}

func (c *console) menu() []menuEntry {
	return []menuEntry{
		{"1", "Register regular customer", c.registerRegular},
		{"2", "Register VIP customer", c.registerVIP},
		{"3", "List all customers", c.listCustomers},
		{"4", "Find customer by email", c.findCustomer},
		{"5", "Show statistics", c.showStatistics},
		{"6", "Make a purchase", c.purchase},
		{"7", "Recharge balance", c.recharge},
		{"8", "Remove customer", c.removeCustomer},
		{"9", "Activate/deactivate customer", c.toggleActive},
		{"10", "Top customers by balance", c.topByBalance},
		{"11", "Search customers by name", c.searchByName},
	}
}

// Run shows the menu until the user picks 0 or input is exhausted.
func (c *console) Run(ctx context.Context) {
	c.printf("Customer Manager | %s\n", c.store.String())

	entries := c.menu()
	for {
		c.printf("\n")
		for _, e := range entries {
			c.printf("%2s. %s\n", e.key, e.label)
		}
		c.printf(" 0. Exit\n")

		choice, err := c.readLine("Select an option: ")
		if err != nil || choice == "0" {
			c.printf("Goodbye.\n")
			return
		}

		entry, ok := findEntry(entries, choice)
		if !ok {
			c.printf("Invalid option, try again.\n")
			continue
		}
		if err := entry.action(ctx); err != nil {
			if errors.Is(err, errInputClosed) {
				c.printf("Goodbye.\n")
				return
			}
			c.printf("Error: %v\n", err)
		}
	}
}

func findEntry(entries []menuEntry, key string) (menuEntry, bool) {
	for _, e := range entries {
		if e.key == key {
			return e, true
		}
	}
	return menuEntry{}, false
}

func (c *console) registerRegular(ctx context.Context) error {
	name, email, address, balance, err := c.readCustomerData()
	if err != nil {
		return err
	}
	acc, err := customer.NewCustomer(name, email, address, balance)
	if err != nil {
		return err
	}
	c.printf("%s\n", c.store.Register(ctx, acc).Message)
	return nil
}

func (c *console) registerVIP(ctx context.Context) error {
	name, email, address, balance, err := c.readCustomerData()
	if err != nil {
		return err
	}

	c.printf("VIP tiers:\n")
	for _, tier := range customer.Tiers() {
		rate, _ := customer.TierRate(tier)
		c.printf("  %s: %s%% discount\n", tier, rate.Shift(2).StringFixed(0))
	}
	rate, err := c.readDiscount()
	if err != nil {
		return err
	}

	acc, err := customer.NewVIPCustomer(name, email, address, balance, rate)
	if err != nil {
		return err
	}
	c.printf("%s\n", c.store.Register(ctx, acc).Message)
	return nil
}

func (c *console) readCustomerData() (name, email, address string, balance decimal.Decimal, err error) {
	if name, err = c.readRequired("Full name: ", "Name cannot be empty."); err != nil {
		return
	}
	if email, err = c.readRequired("Email: ", "Email cannot be empty."); err != nil {
		return
	}
	if address, err = c.readRequired("Address: ", "Address cannot be empty."); err != nil {
		return
	}
	for {
		var raw string
		if raw, err = c.readLine("Initial balance: $"); err != nil {
			return
		}
		value, parseErr := decimal.NewFromString(raw)
		switch {
		case parseErr != nil:
			c.printf("Enter a valid number.\n")
		case value.IsNegative():
			c.printf("Balance cannot be negative.\n")
		default:
			balance = value
			return
		}
	}
}

func (c *console) readDiscount() (decimal.Decimal, error) {
	for {
		raw, err := c.readLine("Discount (0.05 to 0.25): ")
		if err != nil {
			return decimal.Zero, err
		}
		rate, parseErr := decimal.NewFromString(raw)
		switch {
		case parseErr != nil:
			c.printf("Enter a valid number.\n")
		case rate.LessThan(minConsoleDiscount) || rate.GreaterThan(maxConsoleDiscount):
			c.printf("Discount must be between 0.05 and 0.25.\n")
		default:
			return rate, nil
		}
	}
}

func (c *console) listCustomers(context.Context) error {
	accounts := c.store.List(false)
	if len(accounts) == 0 {
		c.printf("No customers registered.\n")
		return nil
	}

	c.printf("CUSTOMERS\n%s\n", separator)
	for i, acc := range accounts {
		c.printf("%d. [%s] %s\n", i+1, acc.Kind(), acc)
		if vip, ok := acc.(*customer.VIPCustomer); ok {
			c.printf("   Tier: %s | Total savings: $%s\n", vip.Tier(), vip.TotalSavings().StringFixed(2))
		}
		c.printf("   Registered: %s\n", acc.RegisteredAt().Format("2006-01-02 15:04"))
		c.printf("   Address: %s\n%s\n", acc.Address(), separator)
	}
	return nil
}

func (c *console) findCustomer(context.Context) error {
	email, err := c.readLine("Customer email: ")
	if err != nil {
		return err
	}
	if email == "" {
		c.printf("An email is required.\n")
		return nil
	}

	acc, ok := c.store.Find(email)
	if !ok {
		c.printf("Customer not found.\n")
		return nil
	}

	c.printf("Name: %s\nEmail: %s\nBalance: $%s\n", acc.Name(), acc.Email(), acc.Balance().StringFixed(2))
	c.printf("Registered: %s\nAddress: %s\n", acc.RegisteredAt().Format("2006-01-02 15:04"), acc.Address())
	c.printf("Status: %s\n", activeLabel(acc.IsActive()))
	if vip, ok := acc.(*customer.VIPCustomer); ok {
		c.printf("VIP tier: %s\nDiscount: %s%%\nTotal savings: $%s\n",
			vip.Tier(), vip.DiscountRate().Shift(2).StringFixed(0), vip.TotalSavings().StringFixed(2))
	}
	c.printf("Total purchased: $%s\nCustomer for: %d days\n", acc.TotalPurchased().StringFixed(2), acc.AgeInDays(c.now()))
	return nil
}

func (c *console) showStatistics(context.Context) error {
	stats := c.store.Statistics()
	c.printf("STATISTICS\n%s\n", separator)
	c.printf("Total customers: %d\n", stats.TotalCustomers)
	c.printf("Active: %d\nInactive: %d\n", stats.ActiveCustomers, stats.InactiveCustomers)
	c.printf("VIP: %d\nRegular: %d\n", stats.VIPCustomers, stats.RegularCustomers)
	c.printf("Total balance: $%s\n", stats.TotalBalance.StringFixed(2))
	c.printf("Total purchased: $%s\n", stats.TotalPurchased.StringFixed(2))
	c.printf("VIP savings: $%s\n", stats.TotalVIPSavings.StringFixed(2))
	c.printf("Average balance: $%s\n", stats.AverageBalance.StringFixed(2))
	c.printf("Average purchased: $%s\n", stats.AveragePurchased.StringFixed(2))
	return nil
}

func (c *console) purchase(ctx context.Context) error {
	email, amount, ok, err := c.readEmailAndAmount("Purchase amount: $")
	if err != nil || !ok {
		return err
	}
	result, outcome, err := c.store.Purchase(ctx, email, amount)
	if err != nil {
		return err
	}
	if outcome.Status == customer.StatusNotFound {
		c.printf("%s\n", outcome.Message)
		return nil
	}
	c.printf("%s\n", result.Message())
	return nil
}

func (c *console) recharge(ctx context.Context) error {
	email, amount, ok, err := c.readEmailAndAmount("Recharge amount: $")
	if err != nil || !ok {
		return err
	}
	result, outcome, err := c.store.Recharge(ctx, email, amount)
	if err != nil {
		return err
	}
	if !outcome.OK() {
		c.printf("%s\n", outcome.Message)
		return nil
	}
	c.printf("%s\n", result.Message())
	return nil
}

// readEmailAndAmount looks the customer up before asking for an amount.
// ok is false when the prompt was abandoned with a message already shown.
func (c *console) readEmailAndAmount(amountPrompt string) (email string, amount decimal.Decimal, ok bool, err error) {
	if email, err = c.readLine("Customer email: "); err != nil {
		return
	}
	if _, found := c.store.Find(email); !found {
		c.printf("Customer not found.\n")
		return
	}

	raw, err := c.readLine(amountPrompt)
	if err != nil {
		return
	}
	amount, parseErr := decimal.NewFromString(raw)
	if parseErr != nil {
		c.printf("Enter a valid number.\n")
		return
	}
	if !amount.IsPositive() {
		c.printf("Amount must be greater than 0.\n")
		return
	}
	return email, amount, true, nil
}

func (c *console) removeCustomer(ctx context.Context) error {
	email, err := c.readLine("Email of the customer to remove: ")
	if err != nil {
		return err
	}
	c.printf("%s\n", c.store.Remove(ctx, email).Message)
	return nil
}

func (c *console) toggleActive(ctx context.Context) error {
	email, err := c.readLine("Customer email: ")
	if err != nil {
		return err
	}
	acc, ok := c.store.Find(email)
	if !ok {
		c.printf("Customer not found.\n")
		return nil
	}

	var outcome customer.Outcome
	if acc.IsActive() {
		outcome = c.store.Deactivate(ctx, email)
	} else {
		outcome = c.store.Activate(ctx, email)
	}
	c.printf("%s\n", outcome.Message)
	return nil
}

func (c *console) topByBalance(context.Context) error {
	top := c.store.TopByBalance(customer.DefaultRankingLimit)
	if len(top) == 0 {
		c.printf("No customers registered.\n")
		return nil
	}

	c.printf("TOP %d CUSTOMERS BY BALANCE\n%s\n", customer.DefaultRankingLimit, separator)
	for i, acc := range top {
		c.printf("%d. [%s] %s | $%s\n", i+1, acc.Kind(), acc.Name(), acc.Balance().StringFixed(2))
	}
	return nil
}

func (c *console) searchByName(context.Context) error {
	query, err := c.readLine("Name contains: ")
	if err != nil {
		return err
	}
	if query == "" {
		c.printf("A search term is required.\n")
		return nil
	}

	matches := c.store.SearchByName(query)
	if len(matches) == 0 {
		c.printf("No customers match %q.\n", query)
		return nil
	}
	for i, acc := range matches {
		c.printf("%d. %s\n", i+1, acc)
	}
	return nil
}

func (c *console) readRequired(prompt, emptyMessage string) (string, error) {
	for {
		value, err := c.readLine(prompt)
		if err != nil {
			return "", err
		}
		if value != "" {
			return value, nil
		}
		c.printf("%s\n", emptyMessage)
	}
}

func (c *console) readLine(prompt string) (string, error) {
	c.printf("%s", prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}
