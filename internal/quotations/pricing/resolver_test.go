package pricing

import (
	"testing"

	"eventquote_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

func totalsOf(subtotal, net string) Totals {
	return Totals{SubtotalServices: d(subtotal), NetAdditionalCosts: d(net)}
}

func TestNewSession_InitialMode(t *testing.T) {
	r := NewResolver(DefaultGuardrailPolicy())

	fresh, err := r.NewSession(SessionSeed{Origin: OriginNew, Totals: totalsOf("1300", "-100")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.Mode != ModeAutomatic || fresh.Total().StringFixed(2) != "1200.00" {
		t.Fatalf("expected automatic 1200.00, got %s %s", fresh.Mode, fresh.Total())
	}

	pkg, err := r.NewSession(SessionSeed{Origin: OriginPackage, Totals: totalsOf("1300", "0"), HistoricalTotal: dp("999"), Pinned: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkg.Mode != ModeManual || !pkg.Total().Equal(d("999")) {
		t.Fatalf("expected package session pinned at 999, got %s %s", pkg.Mode, pkg.Total())
	}

	if _, err := r.NewSession(SessionSeed{Origin: OriginNew, Pinned: true}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for pin without total, got %v", err)
	}
}

func TestLinesChanged_ReleasesStalePin(t *testing.T) {
	r := NewResolver(DefaultGuardrailPolicy())
	s, _ := r.NewSession(SessionSeed{Origin: OriginPackage, Totals: totalsOf("1000", "0"), HistoricalTotal: dp("900"), Pinned: true})

	r.LinesChanged(s, totalsOf("1500", "0"), d("800"))

	if s.Mode != ModeAutomatic {
		t.Fatalf("expected automatic after line change, got %s", s.Mode)
	}
	if !s.Total().Equal(d("1500")) {
		t.Fatalf("expected total 1500, got %s", s.Total())
	}
}

func TestLinesChanged_KeepsPinWhileEditingTotal(t *testing.T) {
	r := NewResolver(DefaultGuardrailPolicy())
	s, _ := r.NewSession(SessionSeed{Origin: OriginEdit, Totals: totalsOf("1000", "0"), HistoricalTotal: dp("1100"), Pinned: true})

	r.BeginTotalEdit(s)
	r.LinesChanged(s, totalsOf("2000", "0"), d("500"))

	if s.Mode != ModeManual || !s.Total().Equal(d("1100")) {
		t.Fatalf("expected pin 1100 to survive, got %s %s", s.Mode, s.Total())
	}
}

func TestLinesChanged_EditCascadeKeepsLastKnownGoodOnRisk(t *testing.T) {
	r := NewResolver(DefaultGuardrailPolicy())
	s, _ := r.NewSession(SessionSeed{Origin: OriginEdit, Totals: totalsOf("10000", "0"), CostTotal: d("6000"), HistoricalTotal: dp("10000"), Pinned: true})

	analysis := r.LinesChanged(s, totalsOf("8000", "0"), d("6000"))

	if analysis == nil || analysis.State != StateRisk {
		t.Fatalf("expected RISK analysis, got %+v", analysis)
	}
	if s.Mode != ModeManual || !s.Total().Equal(d("10000")) {
		t.Fatalf("expected last known-good 10000 kept, got %s %s", s.Mode, s.Total())
	}

	analysis = r.LinesChanged(s, totalsOf("9700", "0"), d("6000"))
	if analysis == nil || analysis.State != StateOK {
		t.Fatalf("expected OK analysis, got %+v", analysis)
	}
	if s.Mode != ModeAutomatic || !s.Total().Equal(d("9700")) {
		t.Fatalf("expected automatic 9700, got %s %s", s.Mode, s.Total())
	}
}

func TestProposeManualTotal_EditRiskNeedsConfirmation(t *testing.T) {
	r := NewResolver(DefaultGuardrailPolicy())
	s, _ := r.NewSession(SessionSeed{Origin: OriginEdit, Totals: totalsOf("10000", "0"), CostTotal: d("6000"), HistoricalTotal: dp("10000")})

	r.BeginTotalEdit(s)
	analysis, err := r.ProposeManualTotal(s, d("8000"))
	if !apperr.Is(err, apperr.KindGuardrail) {
		t.Fatalf("expected guardrail error, got %v", err)
	}
	if analysis.State != StateRisk || !s.HasPending() {
		t.Fatalf("expected pending risky proposal, got %+v", analysis)
	}
	if !s.Total().Equal(d("10000")) {
		t.Fatalf("expected committed total unchanged, got %s", s.Total())
	}

	value, err := r.ConfirmPending(s)
	if err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}
	if !value.Equal(d("8000")) || s.Mode != ModeManual || !s.Total().Equal(d("8000")) {
		t.Fatalf("expected pinned 8000 after confirm, got %s %s", s.Mode, s.Total())
	}
	if s.HasPending() || s.TotalEditInProgress {
		t.Fatal("expected pending state cleared")
	}
}

func TestProposeManualTotal_DiscardKeepsPreviousTotal(t *testing.T) {
	r := NewResolver(DefaultGuardrailPolicy())
	s, _ := r.NewSession(SessionSeed{Origin: OriginEdit, Totals: totalsOf("10000", "0"), CostTotal: d("6000"), HistoricalTotal: dp("10000")})

	_, _ = r.ProposeManualTotal(s, d("5000"))
	r.DiscardPending(s)

	if s.HasPending() || s.Mode != ModeAutomatic || !s.Total().Equal(d("10000")) {
		t.Fatalf("expected automatic 10000 after discard, got %s %s", s.Mode, s.Total())
	}
	if _, err := r.ConfirmPending(s); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict when nothing is pending, got %v", err)
	}
}

func TestProposeManualTotal_PackageAcceptsOptimistically(t *testing.T) {
	r := NewResolver(DefaultGuardrailPolicy())
	s, _ := r.NewSession(SessionSeed{Origin: OriginPackage, Totals: totalsOf("10000", "0"), CostTotal: d("6000"), HistoricalTotal: dp("10000"), Pinned: true})

	analysis, err := r.ProposeManualTotal(s, d("7000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.State != StateRisk {
		t.Fatalf("expected RISK surfaced, got %s", analysis.State)
	}
	if !s.Total().Equal(d("7000")) {
		t.Fatalf("expected 7000 committed, got %s", s.Total())
	}
}

func TestProposeManualTotal_NewQuotationIsManualState(t *testing.T) {
	r := NewResolver(DefaultGuardrailPolicy())
	s, _ := r.NewSession(SessionSeed{Origin: OriginNew, Totals: totalsOf("1200", "0"), CostTotal: d("700")})

	analysis, err := r.ProposeManualTotal(s, d("1000.456"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.State != StateManual {
		t.Fatalf("expected MANUAL, got %s", analysis.State)
	}
	if got := s.Total().StringFixed(2); got != "1000.46" {
		t.Fatalf("expected rounded pin 1000.46, got %s", got)
	}

	if _, err := r.ProposeManualTotal(s, decimal.NewFromInt(-1)); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative total, got %v", err)
	}
}

func TestRestoreAutomatic(t *testing.T) {
	r := NewResolver(DefaultGuardrailPolicy())
	s, _ := r.NewSession(SessionSeed{Origin: OriginEdit, Totals: totalsOf("500", "50"), HistoricalTotal: dp("600"), Pinned: true})

	r.RestoreAutomatic(s)

	if s.Mode != ModeAutomatic || s.PinnedTotal != nil || !s.Total().Equal(d("550")) {
		t.Fatalf("expected automatic 550, got %s %s", s.Mode, s.Total())
	}
}
