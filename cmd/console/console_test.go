package main

import (
	"bytes"
	"context"
	"customer-manager/internal/domain/customer"
	"customer-manager/internal/event"
	"customer-manager/internal/infrastructure/storage/jsonfile"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*customer.Store, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "customers_console.json")
	store := customer.NewStore(context.Background(), jsonfile.NewRepository(path, logger), event.NoopPublisher{}, logger)
	return store, path
}

func runScript(t *testing.T, store *customer.Store, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	newConsole(store, in, &out).Run(context.Background())
	return out.String()
}

func TestConsole_RegisterAndFind(t *testing.T) {
	store, path := newTestStore(t)

	out := runScript(t, store,
		"1", "  ana gomez ", "", "ANA@Example.com", "Calle 1", "abc", "-5", "100",
		"4", "ana@example.com",
		"0",
	)

	assert.Contains(t, out, "Email cannot be empty.")
	assert.Contains(t, out, "Enter a valid number.")
	assert.Contains(t, out, "Balance cannot be negative.")
	assert.Contains(t, out, "Regular customer 'Ana Gomez' registered successfully.")
	assert.Contains(t, out, "Balance: $100.00")
	assert.Contains(t, out, "Status: Active")
	assert.True(t, strings.HasSuffix(out, "Goodbye.\n"))

	// A fresh store over the same file sees the registration.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reloaded := customer.NewStore(context.Background(), jsonfile.NewRepository(path, logger), nil, logger)
	_, ok := reloaded.Find("ana@example.com")
	assert.True(t, ok)
}

func TestConsole_RegisterVIPAndPurchase(t *testing.T) {
	store, _ := newTestStore(t)

	out := runScript(t, store,
		"2", "Bruno", "bruno@example.com", "Calle 2", "200", "0.50", "0.10",
		"6", "bruno@example.com", "100",
		"6", "bruno@example.com", "500",
		"0",
	)

	assert.Contains(t, out, "Diamond: 25% discount")
	assert.Contains(t, out, "Discount must be between 0.05 and 0.25.")
	assert.Contains(t, out, "VIP customer 'Bruno' registered successfully.")
	assert.Contains(t, out, "Final: $90.00")
	assert.Contains(t, out, "Insufficient balance. Available: $110.00, required with discount: $450.00")

	acc, ok := store.Find("bruno@example.com")
	require.True(t, ok)
	assert.True(t, acc.Balance().Equal(decimal.NewFromInt(110)))
}

func TestConsole_RechargeToggleAndRemove(t *testing.T) {
	store, _ := newTestStore(t)
	acc, err := customer.NewCustomer("Carla Diaz", "carla@example.com", "Calle 3", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.True(t, store.Register(context.Background(), acc).OK())

	out := runScript(t, store,
		"7", "carla@example.com", "0",
		"7", "carla@example.com", "25",
		"9", "carla@example.com",
		"9", "carla@example.com",
		"8", "carla@example.com",
		"8", "carla@example.com",
		"0",
	)

	assert.Contains(t, out, "Amount must be greater than 0.")
	assert.Contains(t, out, "Balance recharged: $25.00. Total: $35.00")
	assert.Contains(t, out, "Customer 'Carla Diaz' deactivated.")
	assert.Contains(t, out, "Customer 'Carla Diaz' activated.")
	assert.Contains(t, out, "Customer 'Carla Diaz' removed successfully.")
	assert.Contains(t, out, "Customer with email carla@example.com not found.")
	assert.Equal(t, 0, store.Len())
}

func TestConsole_ListingsAndStatistics(t *testing.T) {
	store, _ := newTestStore(t)

	out := runScript(t, store, "3", "10", "0")
	assert.Equal(t, 2, strings.Count(out, "No customers registered."))

	for i, name := range []string{"Ana Gomez", "Bruno Silva"} {
		acc, err := customer.NewCustomer(name, strings.ToLower(strings.Fields(name)[0])+"@example.com", "", decimal.NewFromInt(int64(10*(i+1))))
		require.NoError(t, err)
		require.True(t, store.Register(context.Background(), acc).OK())
	}

	out = runScript(t, store, "3", "5", "10", "11", "silva", "11", "zzz", "0")

	assert.Contains(t, out, "CUSTOMERS")
	assert.Contains(t, out, "Total customers: 2")
	assert.Contains(t, out, "Total balance: $30.00")
	assert.Contains(t, out, "1. [Regular] Bruno Silva | $20.00")
	assert.Contains(t, out, "2. [Regular] Ana Gomez | $10.00")
	assert.Contains(t, out, `No customers match "zzz".`)
}

func TestConsole_InvalidOptionAndClosedInput(t *testing.T) {
	store, _ := newTestStore(t)

	out := runScript(t, store, "42", "1", "Dana")

	assert.Contains(t, out, "Invalid option, try again.")
	assert.True(t, strings.HasSuffix(out, "Goodbye.\n"))
	assert.Equal(t, 0, store.Len())
}

func TestConsole_ValidationErrorIsReported(t *testing.T) {
	store, _ := newTestStore(t)

	out := runScript(t, store, "1", "Eve", "not-an-email", "Calle", "5", "0")

	assert.Contains(t, out, "Error: validation failed")
	assert.Contains(t, out, "invalid email format")
	assert.Equal(t, 0, store.Len())
}
