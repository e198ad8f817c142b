package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GuardrailRequest holds the guardrail thresholds. Percentages are fractions.
type GuardrailRequest struct {
	MaxVariancePct decimal.Decimal `json:"maxVariancePct"`
	MaxVarianceAbs decimal.Decimal `json:"maxVarianceAbs" validate:"money"`
	MinMargin      decimal.Decimal `json:"minMargin"`
}

type UpdatePricingConfigurationRequest struct {
	ServiceMargin     decimal.Decimal            `json:"serviceMargin"`
	ProductMargin     decimal.Decimal            `json:"productMargin"`
	PaymentSurcharges map[string]decimal.Decimal `json:"paymentSurcharges" validate:"dive,keys,required,max=50,endkeys"`
	Guardrail         GuardrailRequest           `json:"guardrail"`
}

type CreateCommercialConditionRequest struct {
	Name          string          `json:"name" validate:"required,min=1,max=100"`
	DiscountRate  decimal.Decimal `json:"discountRate"`
	PaymentMethod string          `json:"paymentMethod,omitempty" validate:"max=50"`
}

type CommercialConditionResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	DiscountRate  string    `json:"discountRate"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
}

type GuardrailResponse struct {
	MaxVariancePct string `json:"maxVariancePct"`
	MaxVarianceAbs string `json:"maxVarianceAbs"`
	MinMargin      string `json:"minMargin"`
}

type PricingConfigurationResponse struct {
	ServiceMargin        string                        `json:"serviceMargin"`
	ProductMargin        string                        `json:"productMargin"`
	PaymentSurcharges    map[string]string             `json:"paymentSurcharges"`
	CommercialConditions []CommercialConditionResponse `json:"commercialConditions"`
	Guardrail            GuardrailResponse             `json:"guardrail"`
}
