package service

import (
	"fmt"
	"os"

	"eventquote_backend/internal/quotations/pricing"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// defaultsFile is the on-disk shape of the pricing defaults. Amounts are
// strings so that no float conversion happens on the way in.
type defaultsFile struct {
	TargetMargins     map[string]string `yaml:"target_margins"`
	PaymentSurcharges map[string]string `yaml:"payment_surcharges"`
	Guardrail         struct {
		MaxVariancePct string `yaml:"max_variance_pct"`
		MaxVarianceAbs string `yaml:"max_variance_abs"`
		MinMargin      string `yaml:"min_margin"`
	} `yaml:"guardrail"`
}

// BuiltinDefaults applies to organizations without saved configuration when
// no defaults file is configured.
func BuiltinDefaults() pricing.Configuration {
	return pricing.Configuration{
		TargetMargins: map[pricing.UtilityType]decimal.Decimal{
			pricing.UtilityService: decimal.RequireFromString("0.30"),
			pricing.UtilityProduct: decimal.RequireFromString("0.20"),
		},
		PaymentSurcharges:    map[string]decimal.Decimal{},
		CommercialConditions: []pricing.CommercialCondition{},
		Guardrail:            pricing.DefaultGuardrailPolicy(),
	}
}

// LoadDefaults reads the pricing defaults file. An empty path yields the
// built-in defaults.
func LoadDefaults(path string) (pricing.Configuration, error) {
	if path == "" {
		return BuiltinDefaults(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return pricing.Configuration{}, fmt.Errorf("read pricing defaults: %w", err)
	}
	return ParseDefaults(raw)
}

// ParseDefaults decodes a YAML pricing defaults document. Keys missing from
// the document keep their built-in value.
func ParseDefaults(raw []byte) (pricing.Configuration, error) {
	var file defaultsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return pricing.Configuration{}, fmt.Errorf("parse pricing defaults: %w", err)
	}

	cfg := BuiltinDefaults()
	for key, value := range file.TargetMargins {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return pricing.Configuration{}, fmt.Errorf("target_margins.%s: %w", key, err)
		}
		cfg.TargetMargins[pricing.UtilityType(key)] = d
	}
	for method, value := range file.PaymentSurcharges {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return pricing.Configuration{}, fmt.Errorf("payment_surcharges.%s: %w", method, err)
		}
		cfg.PaymentSurcharges[method] = d
	}

	guardrail := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"max_variance_pct", file.Guardrail.MaxVariancePct, &cfg.Guardrail.MaxVariancePct},
		{"max_variance_abs", file.Guardrail.MaxVarianceAbs, &cfg.Guardrail.MaxVarianceAbs},
		{"min_margin", file.Guardrail.MinMargin, &cfg.Guardrail.MinMargin},
	}
	for _, g := range guardrail {
		if g.value == "" {
			continue
		}
		d, err := decimal.NewFromString(g.value)
		if err != nil {
			return pricing.Configuration{}, fmt.Errorf("guardrail.%s: %w", g.name, err)
		}
		*g.dst = d
	}

	if fields := validateConfiguration(cfg); len(fields) > 0 {
		return pricing.Configuration{}, fmt.Errorf("invalid pricing defaults: %v", fields)
	}
	return cfg, nil
}
