// Package pricing holds the pure price computations for quotations: the rate
// model that suggests unit prices, the line aggregator, the margin guardrail
// and the total price resolver. Nothing in this package performs I/O.
package pricing

import (
	"strings"

	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UtilityType selects which target-margin rule applies to a catalog entry.
type UtilityType string

const (
	UtilityService UtilityType = "service"
	UtilityProduct UtilityType = "product"
)

// Valid reports whether the utility type is one of the known classifications.
func (u UtilityType) Valid() bool {
	return u == UtilityService || u == UtilityProduct
}

// CommercialCondition is a named discount that may be tied to a payment method.
type CommercialCondition struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	DiscountRate  decimal.Decimal `json:"discountRate"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

// Configuration is the read-only input of the rate model. Rates are fractions
// (0.30 means 30%).
type Configuration struct {
	TargetMargins        map[UtilityType]decimal.Decimal `json:"targetMargins"`
	PaymentSurcharges    map[string]decimal.Decimal      `json:"paymentSurcharges"`
	CommercialConditions []CommercialCondition           `json:"commercialConditions"`
	Guardrail            GuardrailPolicy                 `json:"guardrail"`
}

// Condition looks up a commercial condition by ID.
func (c Configuration) Condition(id uuid.UUID) (CommercialCondition, bool) {
	for _, cond := range c.CommercialConditions {
		if cond.ID == id {
			return cond, true
		}
	}
	return CommercialCondition{}, false
}

// RateInput describes one catalog entry priced under an optional payment
// method and commercial condition.
type RateInput struct {
	UnitCost              decimal.Decimal
	UnitOverhead          decimal.Decimal
	UtilityType           UtilityType
	PaymentMethod         string
	CommercialConditionID *uuid.UUID
}

// FieldErrors maps offending input fields to a message. It is attached to
// validation errors as details.
type FieldErrors map[string]string

var one = decimal.NewFromInt(1)

// SuggestPrice returns the system unit price for the input: the price at which
// (price - cost - overhead) / price meets the target margin of the utility
// type, adjusted by payment surcharge and commercial discount, rounded up to
// the cent. A discount never pushes the price below the margin floor.
func SuggestPrice(in RateInput, cfg Configuration) (decimal.Decimal, error) {
	fields := FieldErrors{}
	if in.UnitCost.IsNegative() {
		fields["unitCost"] = "must not be negative"
	}
	if in.UnitOverhead.IsNegative() {
		fields["unitOverhead"] = "must not be negative"
	}
	if !in.UtilityType.Valid() {
		fields["utilityType"] = "unknown utility type"
	}
	if len(fields) > 0 {
		return decimal.Zero, apperr.Validation("invalid rate input").WithDetails(fields)
	}

	margin, ok := cfg.TargetMargins[in.UtilityType]
	if !ok || margin.IsNegative() || margin.GreaterThanOrEqual(one) {
		return decimal.Zero, apperr.Validation("target margin must be in [0, 1)").
			WithDetails(FieldErrors{"targetMargins." + string(in.UtilityType): "must be in [0, 1)"})
	}

	floor := in.UnitCost.Add(in.UnitOverhead).Div(one.Sub(margin))
	price := floor

	method := strings.TrimSpace(in.PaymentMethod)
	var discount decimal.Decimal
	if in.CommercialConditionID != nil {
		cond, found := cfg.Condition(*in.CommercialConditionID)
		if !found {
			return decimal.Zero, apperr.Validation("unknown commercial condition").
				WithDetails(FieldErrors{"commercialConditionId": "not found"})
		}
		discount = cond.DiscountRate
		if cond.PaymentMethod != "" {
			method = cond.PaymentMethod
		}
	}

	if surcharge, ok := cfg.PaymentSurcharges[method]; ok && surcharge.IsPositive() {
		price = price.Mul(one.Add(surcharge))
	}
	if discount.IsPositive() {
		price = price.Mul(one.Sub(discount))
		if price.LessThan(floor) {
			price = floor
		}
	}

	return price.RoundCeil(2), nil
}

// UnitUtility is the gross utility of one unit sold at unitPrice.
func UnitUtility(unitPrice, unitCost, unitOverhead decimal.Decimal) decimal.Decimal {
	return Round(unitPrice.Sub(unitCost).Sub(unitOverhead))
}

// Round rounds half away from zero to two decimals.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
