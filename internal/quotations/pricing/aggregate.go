package pricing

import (
	"fmt"

	"eventquote_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

// CostKind classifies an additional cost. Discounts subtract, the others add.
type CostKind string

const (
	CostSession  CostKind = "session"
	CostEvent    CostKind = "event"
	CostDiscount CostKind = "discount"
)

// Valid reports whether the kind is known.
func (k CostKind) Valid() bool {
	return k == CostSession || k == CostEvent || k == CostDiscount
}

// PricedLine is a selected line whose unit price has been resolved.
type PricedLine struct {
	UnitPrice decimal.Decimal
	UnitCost  decimal.Decimal
	Quantity  int
	IsCustom  bool
}

// AdditionalCost is an ad-hoc cost added on top of the service lines.
type AdditionalCost struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Kind   CostKind        `json:"kind"`
}

// Totals is the output of the line aggregator.
type Totals struct {
	SubtotalServices   decimal.Decimal `json:"subtotalServices"`
	NetAdditionalCosts decimal.Decimal `json:"netAdditionalCosts"`
}

// Automatic is the total the resolver uses when no pin is active.
func (t Totals) Automatic() decimal.Decimal {
	return Round(t.SubtotalServices.Add(t.NetAdditionalCosts))
}

// LineSubtotal is unitPrice x quantity rounded to the cent.
func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Aggregate folds lines and additional costs into totals.
func Aggregate(lines []PricedLine, costs []AdditionalCost) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineSubtotal(l.UnitPrice, l.Quantity))
	}

	net := decimal.Zero
	for _, c := range costs {
		amount := Round(c.Amount)
		if c.Kind == CostDiscount {
			net = net.Sub(amount)
			continue
		}
		net = net.Add(amount)
	}

	return Totals{
		SubtotalServices:   Round(subtotal),
		NetAdditionalCosts: Round(net),
	}
}

// CostTotal sums the known cost of the lines. Custom lines contribute zero
// since their true cost is unknown.
func CostTotal(lines []PricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.IsCustom {
			continue
		}
		total = total.Add(LineSubtotal(l.UnitCost, l.Quantity))
	}
	return Round(total)
}

// ValidateInputs checks quantities, prices and cost amounts before aggregation.
func ValidateInputs(lines []PricedLine, costs []AdditionalCost) error {
	fields := FieldErrors{}
	for i, l := range lines {
		if l.Quantity < 1 {
			fields[fmt.Sprintf("lines[%d].quantity", i)] = "must be at least 1"
		}
		if l.UnitPrice.IsNegative() {
			fields[fmt.Sprintf("lines[%d].unitPrice", i)] = "must not be negative"
		}
	}
	for i, c := range costs {
		if !c.Kind.Valid() {
			fields[fmt.Sprintf("costs[%d].kind", i)] = "must be session, event or discount"
		}
		if c.Amount.IsNegative() {
			fields[fmt.Sprintf("costs[%d].amount", i)] = "must not be negative"
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid quotation lines").WithDetails(fields)
	}
	return nil
}
