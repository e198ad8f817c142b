package pricing

import (
	"testing"

	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func testConfig() Configuration {
	return Configuration{
		TargetMargins: map[UtilityType]decimal.Decimal{
			UtilityService: d("0.30"),
			UtilityProduct: d("0.20"),
		},
		PaymentSurcharges: map[string]decimal.Decimal{
			"card": d("0.035"),
		},
		Guardrail: DefaultGuardrailPolicy(),
	}
}

func TestSuggestPrice_MeetsTargetMargin(t *testing.T) {
	cfg := testConfig()
	costs := []string{"0.01", "1", "3.33", "99.99", "100", "250.5", "1234.56", "77777.77"}
	overheads := []string{"0", "0.5", "12.34", "333.33"}

	for _, ut := range []UtilityType{UtilityService, UtilityProduct} {
		target := cfg.TargetMargins[ut]
		for _, c := range costs {
			for _, o := range overheads {
				price, err := SuggestPrice(RateInput{UnitCost: d(c), UnitOverhead: d(o), UtilityType: ut}, cfg)
				if err != nil {
					t.Fatalf("cost %s overhead %s: unexpected error %v", c, o, err)
				}
				if !price.Equal(price.Round(2)) {
					t.Fatalf("expected price rounded to cents, got %s", price)
				}
				margin := price.Sub(d(c)).Sub(d(o)).Div(price)
				if margin.LessThan(target) {
					t.Fatalf("%s cost %s overhead %s: margin %s below target %s (price %s)", ut, c, o, margin, target, price)
				}
			}
		}
	}
}

func TestSuggestPrice_BasicFormula(t *testing.T) {
	price, err := SuggestPrice(RateInput{UnitCost: d("600"), UnitOverhead: d("100"), UtilityType: UtilityService}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(d("1000")) {
		t.Fatalf("expected 1000.00, got %s", price.StringFixed(2))
	}
}

func TestSuggestPrice_SurchargeAndDiscountNeverBelowFloor(t *testing.T) {
	cfg := testConfig()
	condID := uuid.New()
	cfg.CommercialConditions = []CommercialCondition{
		{ID: condID, Name: "Temporada baja", DiscountRate: d("0.50"), PaymentMethod: "card"},
	}

	withCard, err := SuggestPrice(RateInput{UnitCost: d("700"), UtilityType: UtilityService, PaymentMethod: "card"}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !withCard.Equal(d("1035")) {
		t.Fatalf("expected surcharge price 1035.00, got %s", withCard.StringFixed(2))
	}

	discounted, err := SuggestPrice(RateInput{UnitCost: d("700"), UtilityType: UtilityService, CommercialConditionID: &condID}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !discounted.Equal(d("1000")) {
		t.Fatalf("expected discount clamped at floor 1000.00, got %s", discounted.StringFixed(2))
	}
}

func TestSuggestPrice_RejectsNegativeCost(t *testing.T) {
	_, err := SuggestPrice(RateInput{UnitCost: d("-1"), UtilityType: UtilityService}, testConfig())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = SuggestPrice(RateInput{UnitCost: d("1"), UnitOverhead: d("-0.01"), UtilityType: UtilityProduct}, testConfig())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative overhead, got %v", err)
	}
}

func TestSuggestPrice_RejectsInvalidMargin(t *testing.T) {
	cfg := testConfig()
	cfg.TargetMargins[UtilityService] = d("1")
	_, err := SuggestPrice(RateInput{UnitCost: d("10"), UtilityType: UtilityService}, cfg)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for margin 1, got %v", err)
	}

	_, err = SuggestPrice(RateInput{UnitCost: d("10"), UtilityType: "rental"}, testConfig())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown utility type, got %v", err)
	}
}

func TestAggregate_Scenario1200(t *testing.T) {
	lines := []PricedLine{
		{UnitPrice: d("500"), Quantity: 2},
		{UnitPrice: d("300"), Quantity: 1},
	}
	costs := []AdditionalCost{{Name: "Descuento", Amount: d("100"), Kind: CostDiscount}}

	totals := Aggregate(lines, costs)

	if !totals.SubtotalServices.Equal(d("1300")) {
		t.Fatalf("expected subtotal 1300, got %s", totals.SubtotalServices)
	}
	if !totals.NetAdditionalCosts.Equal(d("-100")) {
		t.Fatalf("expected net costs -100, got %s", totals.NetAdditionalCosts)
	}
	if got := totals.Automatic().StringFixed(2); got != "1200.00" {
		t.Fatalf("expected automatic total 1200.00, got %s", got)
	}
}

func TestAggregate_IsIdempotent(t *testing.T) {
	lines := []PricedLine{
		{UnitPrice: d("33.335"), Quantity: 3},
		{UnitPrice: d("0.1"), Quantity: 7},
		{UnitPrice: d("19.99"), Quantity: 1, IsCustom: true},
	}
	costs := []AdditionalCost{
		{Name: "Traslado", Amount: d("150.255"), Kind: CostEvent},
		{Name: "Hora extra", Amount: d("80"), Kind: CostSession},
		{Name: "Cortesia", Amount: d("10.10"), Kind: CostDiscount},
	}

	first := Aggregate(lines, costs)
	second := Aggregate(lines, costs)

	if !first.SubtotalServices.Equal(second.SubtotalServices) || !first.NetAdditionalCosts.Equal(second.NetAdditionalCosts) {
		t.Fatalf("expected identical totals, got %+v and %+v", first, second)
	}
	if !first.SubtotalServices.Equal(d("120.70")) {
		t.Fatalf("expected per-line rounding to give 120.70, got %s", first.SubtotalServices)
	}
}

func TestCostTotal_IgnoresCustomLines(t *testing.T) {
	lines := []PricedLine{
		{UnitPrice: d("500"), UnitCost: d("300"), Quantity: 2},
		{UnitPrice: d("900"), UnitCost: d("800"), Quantity: 1, IsCustom: true},
	}
	if got := CostTotal(lines); !got.Equal(d("600")) {
		t.Fatalf("expected cost total 600, got %s", got)
	}
}

func TestValidateInputs(t *testing.T) {
	err := ValidateInputs(
		[]PricedLine{{UnitPrice: d("10"), Quantity: 0}},
		[]AdditionalCost{{Name: "x", Amount: d("-5"), Kind: "tip"}},
	)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	appErr, ok := err.(*apperr.Error)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	fields, _ := appErr.Details.(FieldErrors)
	if len(fields) != 3 {
		t.Fatalf("expected 3 offending fields, got %v", fields)
	}
}

func TestAnalyze_ReferenceScenarios(t *testing.T) {
	policy := DefaultGuardrailPolicy()
	ref := dp("10000")
	cost := d("6000")

	cases := []struct {
		proposed string
		want     GuardrailState
	}{
		{"9600", StateOK},
		{"8000", StateRisk},
		{"9900", StateOK},
	}

	for _, tc := range cases {
		got := Analyze(d(tc.proposed), ref, cost, policy)
		if got.State != tc.want {
			t.Errorf("proposed %s: expected %s, got %s (%s)", tc.proposed, tc.want, got.State, got.Reason)
		}
	}

	risky := Analyze(d("8000"), ref, cost, policy)
	if risky.VarianceOK {
		t.Fatal("expected variance check to fail for 8000")
	}
	if !risky.MarginFloorOK {
		t.Fatal("expected 25% margin to satisfy the floor")
	}
	if !risky.UtilityOriginal.Equal(d("4000")) || !risky.Delta.Equal(d("-2000")) {
		t.Fatalf("unexpected utilities: original %s delta %s", risky.UtilityOriginal, risky.Delta)
	}

	ok := Analyze(d("9900"), ref, cost, policy)
	if got := ok.MarginPercent.StringFixed(2); got != "39.39" {
		t.Fatalf("expected margin 39.39%%, got %s", got)
	}
}

func TestAnalyze_AbsoluteVarianceAndMarginFloor(t *testing.T) {
	policy := DefaultGuardrailPolicy()

	// 900 off on a 2000 reference is 45% but within the absolute allowance.
	withinAbs := Analyze(d("2900"), dp("2000"), d("1000"), policy)
	if withinAbs.State != StateOK {
		t.Fatalf("expected OK within absolute variance, got %s", withinAbs.State)
	}

	lowMargin := Analyze(d("9800"), dp("10000"), d("8000"), policy)
	if lowMargin.State != StateRisk || lowMargin.MarginFloorOK {
		t.Fatalf("expected RISK from margin floor, got %+v", lowMargin)
	}
}

func TestAnalyze_NoReferenceIsManual(t *testing.T) {
	got := Analyze(d("500"), nil, d("100"), DefaultGuardrailPolicy())
	if got.State != StateManual {
		t.Fatalf("expected MANUAL, got %s", got.State)
	}
	if !got.MarginPercent.Equal(d("80")) {
		t.Fatalf("expected margin 80, got %s", got.MarginPercent)
	}
}
