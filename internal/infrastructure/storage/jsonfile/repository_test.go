package jsonfile_test

import (
	"context"
	"customer-manager/internal/domain/customer"
	"customer-manager/internal/infrastructure/storage/jsonfile"
	"customer-manager/internal/pkg/apperrors"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupRepository(t *testing.T) (*jsonfile.Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.json")
	return jsonfile.NewRepository(path, testLogger), path
}

func findRecord(t *testing.T, records []customer.Record, email string) customer.Record {
	t.Helper()
	for _, r := range records {
		if r.Email == email {
			return r
		}
	}
	t.Fatalf("record %s not found", email)
	return customer.Record{}
}

func TestRepository_Load_MissingFile(t *testing.T) {
	repo, _ := setupRepository(t)

	records, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRepository_Load_CorruptFile(t *testing.T) {
	repo, path := setupRepository(t)
	require.NoError(t, os.WriteFile(path, []byte(`[1, 2, 3`), 0o644))

	records, err := repo.Load(context.Background())

	assert.Nil(t, records)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo, path := setupRepository(t)
	registered := time.Date(2024, 3, 10, 14, 30, 0, 123456000, time.UTC)
	rate := dec("0.15")

	records := []customer.Record{
		{
			Name: "Ana Gomez", Email: "ana@example.com", Address: "Calle 1",
			Balance: dec("150.50"), RegisteredAt: registered, Active: true, Type: customer.KindRegular,
		},
		{
			Name: "Lucia Diaz", Email: "lucia@example.com", Address: "Calle 2",
			Balance: dec("20"), RegisteredAt: registered.Add(time.Hour), Active: false,
			Type: customer.KindVIP, DiscountRate: &rate, Tier: customer.TierGold,
		},
	}

	require.NoError(t, repo.Save(ctx, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"ana@example.com\": {"), "document is keyed by email and indented with two spaces")
	assert.NotContains(t, string(data), "nombre")

	var document map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &document))
	assert.Equal(t, "VIP", document["lucia@example.com"]["type"])
	assert.Equal(t, "Gold", document["lucia@example.com"]["tier"])
	assert.NotContains(t, document["ana@example.com"], "discountRate")

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	ana := findRecord(t, loaded, "ana@example.com")
	assert.Equal(t, "Ana Gomez", ana.Name)
	assert.True(t, ana.Balance.Equal(dec("150.50")))
	assert.True(t, ana.RegisteredAt.Equal(registered))
	assert.True(t, ana.Active)
	assert.Nil(t, ana.DiscountRate)

	lucia := findRecord(t, loaded, "lucia@example.com")
	assert.Equal(t, customer.KindVIP, lucia.Type)
	require.NotNil(t, lucia.DiscountRate)
	assert.True(t, lucia.DiscountRate.Equal(rate))
	assert.False(t, lucia.Active)

	leftovers, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary files must not be left behind")
}

func TestRepository_Load_LegacyDocument(t *testing.T) {
	repo, path := setupRepository(t)
	legacy := `{
  "juan@example.com": {
    "nombre": "Juan Perez",
    "correo": "juan@example.com",
    "direccion": "Av. Siempre Viva 742",
    "saldo": 150.5,
    "fecha_registro": "2024-01-15T10:30:45.123456",
    "activo": false,
    "tipo": "Regular"
  },
  "maria@example.com": {
    "nombre": "Maria Lopez",
    "correo": "maria@example.com",
    "direccion": "Calle Falsa 123",
    "saldo": 300,
    "fecha_registro": "2023-06-01T08:00:00",
    "activo": true,
    "tipo": "VIP",
    "descuento": 0.2,
    "nivel_vip": "Platinum"
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	records, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	juan := findRecord(t, records, "juan@example.com")
	assert.Equal(t, "Juan Perez", juan.Name)
	assert.Equal(t, "Av. Siempre Viva 742", juan.Address)
	assert.True(t, juan.Balance.Equal(dec("150.5")))
	assert.False(t, juan.Active)
	assert.Equal(t, customer.KindRegular, juan.Type)
	assert.True(t, time.Date(2024, 1, 15, 10, 30, 45, 123456000, time.Local).Equal(juan.RegisteredAt))

	maria := findRecord(t, records, "maria@example.com")
	assert.Equal(t, customer.KindVIP, maria.Type)
	require.NotNil(t, maria.DiscountRate)
	assert.True(t, maria.DiscountRate.Equal(dec("0.2")))
	assert.Equal(t, customer.TierPlatinum, maria.Tier)
}

func TestRepository_Load_SkipsMalformedEntries(t *testing.T) {
	repo, path := setupRepository(t)
	document := `{
  "ok@example.com": {"name": "Ok", "email": "ok@example.com", "balance": "1", "registeredAt": "2024-01-01T00:00:00Z", "active": true, "type": "Regular"},
  "notype@example.com": {"name": "No Type", "email": "notype@example.com", "balance": "1", "registeredAt": "2024-01-01T00:00:00Z", "active": true},
  "nodate@example.com": {"name": "No Date", "email": "nodate@example.com", "balance": "1", "active": true, "type": "Regular"},
  "badrate@example.com": {"name": "Bad", "email": "badrate@example.com", "balance": "1", "registeredAt": "2024-01-01T00:00:00Z", "type": "VIP"},
  "nobalance@example.com": {"name": "Broke", "email": "nobalance@example.com", "registeredAt": "2024-01-01T00:00:00Z", "type": "Regular"},
  "garbage@example.com": "not an object"
}`
	require.NoError(t, os.WriteFile(path, []byte(document), 0o644))

	records, err := repo.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ok@example.com", records[0].Email)
}

func TestRepository_Load_EmptyFile(t *testing.T) {
	repo, path := setupRepository(t)
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	records, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRepository_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t)

	store := customer.NewStore(ctx, repo, nil, testLogger)
	regular, err := customer.NewCustomer("ana gomez", "ana@example.com", "Calle 1", dec("100"))
	require.NoError(t, err)
	vip, err := customer.NewVIPCustomer("lucia diaz", "lucia@example.com", "Calle 2", dec("200"), dec("0.12"))
	require.NoError(t, err)

	require.True(t, store.Register(ctx, regular).OK())
	require.True(t, store.Register(ctx, vip).OK())
	require.True(t, store.Deactivate(ctx, "ana@example.com").OK())
	_, _, err = store.Recharge(ctx, "lucia@example.com", dec("50"))
	require.NoError(t, err)

	reloaded := customer.NewStore(ctx, jsonfile.NewRepository(repo.Path(), testLogger), nil, testLogger)

	require.Equal(t, store.Len(), reloaded.Len())
	for _, original := range store.List(false) {
		got, ok := reloaded.Find(original.Email())
		require.True(t, ok)
		assert.Equal(t, original.Name(), got.Name())
		assert.Equal(t, original.Address(), got.Address())
		assert.True(t, original.Balance().Equal(got.Balance()))
		assert.True(t, original.RegisteredAt().Equal(got.RegisteredAt()))
		assert.Equal(t, original.IsActive(), got.IsActive())
		assert.Equal(t, original.Kind(), got.Kind())
	}

	got, _ := reloaded.Find("lucia@example.com")
	reloadedVIP, ok := got.(*customer.VIPCustomer)
	require.True(t, ok)
	assert.True(t, reloadedVIP.DiscountRate().Equal(dec("0.12")))
	assert.Equal(t, customer.TierSilver, reloadedVIP.Tier())
}
