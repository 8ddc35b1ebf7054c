package services

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with thousands separators and exactly two
// decimal places, e.g. 1234567.5 -> "Rs. 1,234,567.50".
func FormatAmount(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return "Rs. " + humanize.FormatFloat("#,###.##", f)
}

// TotalPremium sums the premium of every order in the batch. Premiums that
// are not decimal strings are skipped.
func TotalPremium(batch []CreateBulkOrder) decimal.Decimal {
	total := decimal.Zero
	for _, o := range batch {
		if d, err := decimal.NewFromString(o.Premium); err == nil {
			total = total.Add(d)
		}
	}
	return total
}
