package pricing

import (
	"eventquote_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

// Origin tells the resolver how the draft was started. It selects the
// guardrail policy applied to manual totals.
type Origin string

const (
	OriginNew     Origin = "new"
	OriginPackage Origin = "package"
	OriginEdit    Origin = "edit"
)

// Valid reports whether the origin is known.
func (o Origin) Valid() bool {
	return o == OriginNew || o == OriginPackage || o == OriginEdit
}

// PriceMode records whether the total tracks the aggregator or is pinned.
type PriceMode string

const (
	ModeAutomatic PriceMode = "automatic"
	ModeManual    PriceMode = "manual"
)

// EditingSession is the explicit, per-draft state of the total price resolver.
// It is serialized with the draft and never shared between drafts.
type EditingSession struct {
	Origin              Origin             `json:"origin"`
	Mode                PriceMode          `json:"mode"`
	PinnedTotal         *decimal.Decimal   `json:"pinnedTotal,omitempty"`
	ReferenceTotal      *decimal.Decimal   `json:"referenceTotal,omitempty"`
	LastKnownGood       decimal.Decimal    `json:"lastKnownGood"`
	TotalEditInProgress bool               `json:"totalEditInProgress"`
	PendingTotal        *decimal.Decimal   `json:"pendingTotal,omitempty"`
	LastAnalysis        *GuardrailAnalysis `json:"lastAnalysis,omitempty"`
	Totals              Totals             `json:"totals"`
	CostTotal           decimal.Decimal    `json:"costTotal"`
}

// SessionSeed initializes an editing session.
type SessionSeed struct {
	Origin Origin
	Totals Totals
	// CostTotal is the known cost of the current lines.
	CostTotal decimal.Decimal
	// HistoricalTotal is the package fixed price or the persisted total of the
	// quotation being edited. It becomes the guardrail reference.
	HistoricalTotal *decimal.Decimal
	// Pinned starts the session in manual mode with HistoricalTotal as the pin.
	Pinned bool
}

// Total is the committed total: the pin in manual mode, otherwise the
// aggregator output.
func (s *EditingSession) Total() decimal.Decimal {
	if s.Mode == ModeManual && s.PinnedTotal != nil {
		return *s.PinnedTotal
	}
	return s.Totals.Automatic()
}

// HasPending reports whether a risky proposal awaits confirmation.
func (s *EditingSession) HasPending() bool {
	return s.PendingTotal != nil
}

// Resolver applies the resolver transition rules to an EditingSession.
type Resolver struct {
	policy GuardrailPolicy
}

// NewResolver creates a resolver that consults the guardrail with policy.
func NewResolver(policy GuardrailPolicy) *Resolver {
	if policy.IsZero() {
		policy = DefaultGuardrailPolicy()
	}
	return &Resolver{policy: policy}
}

// NewSession starts a session. Package and edit origins with a pinned
// historical price start in manual mode.
func (r *Resolver) NewSession(seed SessionSeed) (*EditingSession, error) {
	if !seed.Origin.Valid() {
		return nil, apperr.Validation("unknown session origin").WithDetails(FieldErrors{"origin": "must be new, package or edit"})
	}

	s := &EditingSession{
		Origin:    seed.Origin,
		Mode:      ModeAutomatic,
		Totals:    seed.Totals,
		CostTotal: Round(seed.CostTotal),
	}

	if seed.Origin != OriginNew && seed.HistoricalTotal != nil {
		ref := Round(*seed.HistoricalTotal)
		s.ReferenceTotal = &ref
		if seed.Pinned {
			pin := ref
			s.Mode = ModeManual
			s.PinnedTotal = &pin
		}
	} else if seed.Pinned {
		return nil, apperr.Validation("a pinned session needs a historical total").
			WithDetails(FieldErrors{"historicalTotal": "required when pinned"})
	}

	s.LastKnownGood = s.Total()
	return s, nil
}

// BeginTotalEdit marks the total field as being edited so that line changes
// do not release the pin meanwhile.
func (r *Resolver) BeginTotalEdit(s *EditingSession) {
	s.TotalEditInProgress = true
}

// LinesChanged feeds new aggregator output into the session. A stale pin is
// released in favor of the automatic total unless the total field is being
// edited. When editing an existing quotation, a released pin whose automatic
// replacement fails the guardrail is kept at the last known-good total.
func (r *Resolver) LinesChanged(s *EditingSession, totals Totals, costTotal decimal.Decimal) *GuardrailAnalysis {
	s.Totals = totals
	s.CostTotal = Round(costTotal)

	switch {
	case s.Mode == ModeAutomatic:
		s.LastKnownGood = s.Total()
		return nil
	case s.TotalEditInProgress:
		return nil
	}

	automatic := totals.Automatic()
	if s.Origin == OriginEdit && s.ReferenceTotal != nil {
		analysis := Analyze(automatic, s.ReferenceTotal, s.CostTotal, r.policy)
		s.LastAnalysis = &analysis
		if analysis.State == StateRisk {
			keep := s.LastKnownGood
			s.PinnedTotal = &keep
			return &analysis
		}
		r.release(s)
		return &analysis
	}

	r.release(s)
	return nil
}

// ProposeManualTotal pins value as the total after consulting the guardrail.
// On the edit origin a RISK verdict is held as pending and returned as a
// guardrail error until ConfirmPending or DiscardPending is called. Other
// origins commit optimistically and only surface the verdict.
func (r *Resolver) ProposeManualTotal(s *EditingSession, value decimal.Decimal) (GuardrailAnalysis, error) {
	if value.IsNegative() {
		return GuardrailAnalysis{}, apperr.Validation("total must not be negative").
			WithDetails(FieldErrors{"total": "must not be negative"})
	}
	value = Round(value)

	analysis := Analyze(value, s.ReferenceTotal, s.CostTotal, r.policy)
	s.LastAnalysis = &analysis

	if analysis.State == StateRisk && s.Origin == OriginEdit {
		pending := value
		s.PendingTotal = &pending
		s.TotalEditInProgress = true
		return analysis, apperr.Guardrail("proposed total needs confirmation", analysis)
	}

	r.commit(s, value)
	return analysis, nil
}

// ConfirmPending commits a risky proposal the operator explicitly accepted.
func (r *Resolver) ConfirmPending(s *EditingSession) (decimal.Decimal, error) {
	if s.PendingTotal == nil {
		return decimal.Zero, apperr.Conflict("no pending total to confirm")
	}
	value := *s.PendingTotal
	r.commit(s, value)
	return value, nil
}

// DiscardPending drops a risky proposal and keeps the previous total.
func (r *Resolver) DiscardPending(s *EditingSession) {
	s.PendingTotal = nil
	s.TotalEditInProgress = false
}

// RestoreAutomatic clears any pin and returns to automatic mode.
func (r *Resolver) RestoreAutomatic(s *EditingSession) {
	r.release(s)
	s.LastAnalysis = nil
}

// Policy returns the guardrail thresholds in use.
func (r *Resolver) Policy() GuardrailPolicy {
	return r.policy
}

func (r *Resolver) commit(s *EditingSession, value decimal.Decimal) {
	pin := value
	s.Mode = ModeManual
	s.PinnedTotal = &pin
	s.PendingTotal = nil
	s.TotalEditInProgress = false
	s.LastKnownGood = value
}

func (r *Resolver) release(s *EditingSession) {
	s.Mode = ModeAutomatic
	s.PinnedTotal = nil
	s.PendingTotal = nil
	s.TotalEditInProgress = false
	s.LastKnownGood = s.Totals.Automatic()
}
