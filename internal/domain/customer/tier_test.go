package customer_test

import (
	"customer-manager/internal/domain/customer"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTierForRate(t *testing.T) {
	tests := []struct {
		rate string
		want customer.Tier
	}{
		{"0.12", customer.TierSilver},
		{"0.25", customer.TierDiamond},
		{"0.03", customer.TierBronze},
		{"0.05", customer.TierBronze},
		{"0.10", customer.TierSilver},
		{"0.15", customer.TierGold},
		{"0.1999", customer.TierGold},
		{"0.20", customer.TierPlatinum},
		{"1", customer.TierDiamond},
	}

	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			assert.Equal(t, tt.want, customer.TierForRate(decimal.RequireFromString(tt.rate)))
		})
	}
}

// A VIP with no discount still lands in the lowest tier even though it
// gets no benefit from it.
func TestTierForRate_ZeroDiscountFloorsToBronze(t *testing.T) {
	assert.Equal(t, customer.TierBronze, customer.TierForRate(decimal.Zero))
}

func TestTierRate(t *testing.T) {
	rate, ok := customer.TierRate(customer.TierGold)
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.15")))

	_, ok = customer.TierRate(customer.Tier("Unobtainium"))
	assert.False(t, ok)
}

func TestTiers(t *testing.T) {
	assert.Equal(t, []customer.Tier{
		customer.TierBronze, customer.TierSilver, customer.TierGold, customer.TierPlatinum, customer.TierDiamond,
	}, customer.Tiers())
}
