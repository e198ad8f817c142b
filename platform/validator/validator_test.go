package validator

import (
	"testing"

	"github.com/shopspring/decimal"
)

type moneyHolder struct {
	Amount decimal.Decimal `validate:"money"`
}

func TestMoneyRule(t *testing.T) {
	v := New()

	cases := []struct {
		amount string
		valid  bool
	}{
		{"0", true},
		{"1200.00", true},
		{"99.5", true},
		{"-1", false},
		{"10.005", false},
	}

	for _, tc := range cases {
		err := v.Struct(moneyHolder{Amount: decimal.RequireFromString(tc.amount)})
		if tc.valid && err != nil {
			t.Errorf("%s: expected valid, got %v", tc.amount, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("%s: expected validation error", tc.amount)
		}
	}
}
