package customer

import "github.com/shopspring/decimal"

type Statistics struct {
	TotalCustomers    int
	ActiveCustomers   int
	InactiveCustomers int
	VIPCustomers      int
	RegularCustomers  int
	TotalBalance      decimal.Decimal
	TotalPurchased    decimal.Decimal
	TotalVIPSavings   decimal.Decimal
	AverageBalance    decimal.Decimal
	AveragePurchased  decimal.Decimal
}

func computeStatistics(customers map[string]Account) Statistics {
	stats := Statistics{
		TotalBalance:     decimal.Zero,
		TotalPurchased:   decimal.Zero,
		TotalVIPSavings:  decimal.Zero,
		AverageBalance:   decimal.Zero,
		AveragePurchased: decimal.Zero,
	}

	for _, acc := range customers {
		stats.TotalCustomers++
		if acc.IsActive() {
			stats.ActiveCustomers++
		}
		stats.TotalBalance = stats.TotalBalance.Add(acc.Balance())
		stats.TotalPurchased = stats.TotalPurchased.Add(acc.TotalPurchased())

		if vip, ok := acc.(*VIPCustomer); ok {
			stats.VIPCustomers++
			stats.TotalVIPSavings = stats.TotalVIPSavings.Add(vip.TotalSavings())
		}
	}

	stats.InactiveCustomers = stats.TotalCustomers - stats.ActiveCustomers
	stats.RegularCustomers = stats.TotalCustomers - stats.VIPCustomers

	if stats.TotalCustomers > 0 {
		n := decimal.NewFromInt(int64(stats.TotalCustomers))
		stats.AverageBalance = stats.TotalBalance.Div(n)
		stats.AveragePurchased = stats.TotalPurchased.Div(n)
	}
	return stats
}
