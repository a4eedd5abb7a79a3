package customer_test

import (
	"customer-manager/internal/domain/customer"
	"customer-manager/internal/pkg/apperrors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	t.Run("Regular", func(t *testing.T) {
		c := newRegular(t, "10")
		c.Deactivate()

		rec := customer.NewRecord(c)
		assert.Equal(t, customer.KindRegular, rec.Type)
		assert.Equal(t, "ana@example.com", rec.Email)
		assert.False(t, rec.Active)
		assert.Nil(t, rec.DiscountRate)
		assert.Empty(t, rec.Tier)
	})

	t.Run("VIP", func(t *testing.T) {
		v := newVIP(t, "10", "0.20")

		rec := customer.NewRecord(v)
		assert.Equal(t, customer.KindVIP, rec.Type)
		require.NotNil(t, rec.DiscountRate)
		assert.True(t, rec.DiscountRate.Equal(dec("0.20")))
		assert.Equal(t, customer.TierPlatinum, rec.Tier)
	})
}

func TestRecord_ToAccount_RoundTrip(t *testing.T) {
	v := newVIP(t, "77.7", "0.12")
	v.Deactivate()

	acc, err := customer.NewRecord(v).ToAccount()
	require.NoError(t, err)

	restored, ok := acc.(*customer.VIPCustomer)
	require.True(t, ok)
	assert.Equal(t, v.Email(), restored.Email())
	assert.True(t, v.Balance().Equal(restored.Balance()))
	assert.Equal(t, v.IsActive(), restored.IsActive())
	assert.True(t, v.RegisteredAt().Equal(restored.RegisteredAt()))
	assert.True(t, v.DiscountRate().Equal(restored.DiscountRate()))
	assert.Equal(t, customer.TierSilver, restored.Tier())
}

func TestRecord_Validate(t *testing.T) {
	base := customer.Record{
		Name:         "Ana",
		Email:        "ana@example.com",
		Balance:      dec("1"),
		RegisteredAt: time.Now(),
		Active:       true,
		Type:         customer.KindRegular,
	}
	assert.NoError(t, base.Validate())

	unknown := base
	unknown.Type = "Gold"
	assert.ErrorIs(t, unknown.Validate(), apperrors.ErrInvalidArgument)

	noTime := base
	noTime.RegisteredAt = time.Time{}
	assert.ErrorIs(t, noTime.Validate(), apperrors.ErrValidation)

	vipNoRate := base
	vipNoRate.Type = customer.KindVIP
	assert.ErrorIs(t, vipNoRate.Validate(), apperrors.ErrValidation)
}

func TestRecord_ToAccount_RejectsBrokenInvariants(t *testing.T) {
	rec := customer.Record{
		Name:         "Ana",
		Email:        "ana@example.com",
		Balance:      dec("-5"),
		RegisteredAt: time.Now(),
		Type:         customer.KindRegular,
	}
	_, err := rec.ToAccount()
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	badRate := dec("2")
	rec.Balance = dec("5")
	rec.Type = customer.KindVIP
	rec.DiscountRate = &badRate
	_, err = rec.ToAccount()
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
