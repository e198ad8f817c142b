package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// GuardrailState classifies a proposed manual total.
type GuardrailState string

const (
	// StateOK means the proposal is within variance and above the margin floor.
	StateOK GuardrailState = "OK"
	// StateRisk means the variance or margin check failed.
	StateRisk GuardrailState = "RISK"
	// StateManual means there was no reference total to compare against.
	StateManual GuardrailState = "MANUAL"
)

// GuardrailPolicy holds the thresholds. MaxVariancePct and MinMargin are fractions.
type GuardrailPolicy struct {
	MaxVariancePct decimal.Decimal `json:"maxVariancePct" yaml:"max_variance_pct"`
	MaxVarianceAbs decimal.Decimal `json:"maxVarianceAbs" yaml:"max_variance_abs"`
	MinMargin      decimal.Decimal `json:"minMargin" yaml:"min_margin"`
}

// DefaultGuardrailPolicy is 5% or 1000 variance and a 25% margin floor.
func DefaultGuardrailPolicy() GuardrailPolicy {
	return GuardrailPolicy{
		MaxVariancePct: decimal.NewFromFloat(0.05),
		MaxVarianceAbs: decimal.NewFromInt(1000),
		MinMargin:      decimal.NewFromFloat(0.25),
	}
}

// IsZero reports whether no threshold was configured.
func (p GuardrailPolicy) IsZero() bool {
	return p.MaxVariancePct.IsZero() && p.MaxVarianceAbs.IsZero() && p.MinMargin.IsZero()
}

// GuardrailAnalysis is the derived verdict on a proposed total. It is attached
// to the editing session and never persisted with the quotation.
type GuardrailAnalysis struct {
	ProposedTotal   decimal.Decimal  `json:"proposedTotal"`
	ReferenceTotal  *decimal.Decimal `json:"referenceTotal,omitempty"`
	CostTotal       decimal.Decimal  `json:"costTotal"`
	MarginPercent   decimal.Decimal  `json:"marginPercent"`
	UtilityProposed decimal.Decimal  `json:"utilityProposed"`
	UtilityOriginal decimal.Decimal  `json:"utilityOriginal"`
	Delta           decimal.Decimal  `json:"delta"`
	VarianceOK      bool             `json:"varianceOk"`
	MarginFloorOK   bool             `json:"marginFloorOk"`
	State           GuardrailState   `json:"state"`
	Reason          string           `json:"reason,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Analyze evaluates proposed against reference and the cost of the lines.
// A nil reference yields StateManual with the margin figures still filled in.
func Analyze(proposed decimal.Decimal, reference *decimal.Decimal, costTotal decimal.Decimal, policy GuardrailPolicy) GuardrailAnalysis {
	if policy.IsZero() {
		policy = DefaultGuardrailPolicy()
	}

	proposed = Round(proposed)
	costTotal = Round(costTotal)

	utilityProposed := proposed.Sub(costTotal)
	margin := decimal.Zero
	if proposed.IsPositive() {
		margin = utilityProposed.Div(proposed)
	}

	analysis := GuardrailAnalysis{
		ProposedTotal:   proposed,
		CostTotal:       costTotal,
		MarginPercent:   Round(margin.Mul(hundred)),
		UtilityProposed: Round(utilityProposed),
		MarginFloorOK:   margin.GreaterThanOrEqual(policy.MinMargin),
	}

	if reference == nil {
		analysis.State = StateManual
		analysis.VarianceOK = true
		analysis.Reason = "no reference total"
		return analysis
	}

	ref := Round(*reference)
	analysis.ReferenceTotal = &ref
	analysis.UtilityOriginal = Round(ref.Sub(costTotal))
	analysis.Delta = analysis.UtilityProposed.Sub(analysis.UtilityOriginal)

	diff := proposed.Sub(ref).Abs()
	relativeOK := false
	if ref.IsPositive() {
		relativeOK = diff.Div(ref).LessThanOrEqual(policy.MaxVariancePct)
	}
	analysis.VarianceOK = relativeOK || diff.LessThanOrEqual(policy.MaxVarianceAbs)

	if analysis.VarianceOK && analysis.MarginFloorOK {
		analysis.State = StateOK
		return analysis
	}

	analysis.State = StateRisk
	analysis.Reason = riskReason(analysis, diff, ref, policy)
	return analysis
}

func riskReason(a GuardrailAnalysis, diff, ref decimal.Decimal, policy GuardrailPolicy) string {
	var reasons []string
	if !a.VarianceOK {
		variance := "n/a"
		if ref.IsPositive() {
			variance = Round(diff.Div(ref).Mul(hundred)).StringFixed(2) + "%"
		}
		reasons = append(reasons, fmt.Sprintf("price variance %s (%s) exceeds %s%% and %s",
			variance,
			diff.StringFixed(2),
			Round(policy.MaxVariancePct.Mul(hundred)).StringFixed(2),
			policy.MaxVarianceAbs.StringFixed(2),
		))
	}
	if !a.MarginFloorOK {
		reasons = append(reasons, fmt.Sprintf("margin %s%% is below the %s%% floor",
			a.MarginPercent.StringFixed(2),
			Round(policy.MinMargin.Mul(hundred)).StringFixed(2),
		))
	}
	return strings.Join(reasons, "; ")
}
