package customer

import "github.com/shopspring/decimal"

type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
	TierDiamond  Tier = "Diamond"
)

type tierThreshold struct {
	rate decimal.Decimal
	tier Tier
}

// Highest threshold first.
var tierThresholds = []tierThreshold{
	{rate: decimal.RequireFromString("0.25"), tier: TierDiamond},
	{rate: decimal.RequireFromString("0.20"), tier: TierPlatinum},
	{rate: decimal.RequireFromString("0.15"), tier: TierGold},
	{rate: decimal.RequireFromString("0.10"), tier: TierSilver},
	{rate: decimal.RequireFromString("0.05"), tier: TierBronze},
}

// TierForRate returns the highest tier whose threshold is <= rate. Rates
// below every threshold, including zero, still map to Bronze.
func TierForRate(rate decimal.Decimal) Tier {
	for _, t := range tierThresholds {
		if rate.GreaterThanOrEqual(t.rate) {
			return t.tier
		}
	}
	return TierBronze
}

// TierRate returns the conventional discount rate for a named tier.
func TierRate(tier Tier) (decimal.Decimal, bool) {
	for _, t := range tierThresholds {
		if t.tier == tier {
			return t.rate, true
		}
	}
	return decimal.Zero, false
}

// Tiers lists the named tiers from lowest to highest.
func Tiers() []Tier {
	tiers := make([]Tier, 0, len(tierThresholds))
	for i := len(tierThresholds) - 1; i >= 0; i-- {
		tiers = append(tiers, tierThresholds[i].tier)
	}
	return tiers
}
