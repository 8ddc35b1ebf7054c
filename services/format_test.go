package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatAmount_Values(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"zero", "0", "Rs. 0.00"},
		{"small integer", "5", "Rs. 5.00"},
		{"with decimals", "42.5", "Rs. 42.50"},
		{"thousands", "1234.56", "Rs. 1,234.56"},
		{"millions", "1234567.5", "Rs. 1,234,567.50"},
		{"rounds to cents", "99.999", "Rs. 100.00"},
		{"negative", "-2500", "Rs. -2,500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatAmount(decimal.RequireFromString(tt.input))
			if got != tt.expect {
				t.Errorf("FormatAmount(%s) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestTotalPremium(t *testing.T) {
	batch := []CreateBulkOrder{
		{Premium: "12500"},
		{Premium: "0.10"},
		{Premium: "0.20"},
		{Premium: "not-a-number"},
	}
	got := TotalPremium(batch)
	if !got.Equal(decimal.RequireFromString("12500.30")) {
		t.Errorf("TotalPremium = %s, want 12500.30", got)
	}
	if !TotalPremium(nil).IsZero() {
		t.Error("TotalPremium(nil) should be zero")
	}
}
