package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/quotations/repository"
	"eventquote_backend/platform/apperr"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

type fakeStore struct {
	mu         sync.Mutex
	quotations map[uuid.UUID]*repository.Quotation
	lines      map[uuid.UUID][]repository.QuotationLine
	costs      map[uuid.UUID][]repository.QuotationCost
	runs       map[uuid.UUID]*repository.CascadeRun
	failWrites error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		quotations: map[uuid.UUID]*repository.Quotation{},
		lines:      map[uuid.UUID][]repository.QuotationLine{},
		costs:      map[uuid.UUID][]repository.QuotationCost{},
		runs:       map[uuid.UUID]*repository.CascadeRun{},
	}
}

func (f *fakeStore) CreateWithLines(_ context.Context, q *repository.Quotation, lines []repository.QuotationLine, costs []repository.QuotationCost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	cp := *q
	f.quotations[q.ID] = &cp
	f.lines[q.ID] = append([]repository.QuotationLine(nil), lines...)
	f.costs[q.ID] = append([]repository.QuotationCost(nil), costs...)
	return nil
}

func (f *fakeStore) ReplaceWithLines(_ context.Context, q *repository.Quotation, lines []repository.QuotationLine, costs []repository.QuotationCost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	existing, ok := f.quotations[q.ID]
	if !ok || existing.ArchivedAt != nil {
		return apperr.NotFound("quotation not found")
	}
	cp := *q
	f.quotations[q.ID] = &cp
	f.lines[q.ID] = append([]repository.QuotationLine(nil), lines...)
	f.costs[q.ID] = append([]repository.QuotationCost(nil), costs...)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID, orgID uuid.UUID) (*repository.Quotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok || q.OrganizationID != orgID {
		return nil, apperr.NotFound("quotation not found")
	}
	cp := *q
	return &cp, nil
}

func (f *fakeStore) GetLines(_ context.Context, quotationID uuid.UUID, _ uuid.UUID) ([]repository.QuotationLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.QuotationLine(nil), f.lines[quotationID]...), nil
}

func (f *fakeStore) GetCosts(_ context.Context, quotationID uuid.UUID, _ uuid.UUID) ([]repository.QuotationCost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.QuotationCost(nil), f.costs[quotationID]...), nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, orgID uuid.UUID, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok || q.OrganizationID != orgID {
		return apperr.NotFound("quotation not found")
	}
	if q.Status != from {
		return apperr.Conflict("quotation status changed concurrently")
	}
	q.Status = to
	q.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) FindActiveForEvent(_ context.Context, orgID, eventID, excludeID uuid.UUID) (*repository.Quotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.quotations {
		if q.OrganizationID != orgID || q.EventID != eventID || q.ID == excludeID || q.ArchivedAt != nil {
			continue
		}
		if q.Status == "authorized" || q.Status == "approved" {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID, orgID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok || q.OrganizationID != orgID {
		return apperr.NotFound("quotation not found")
	}
	delete(f.quotations, id)
	delete(f.lines, id)
	delete(f.costs, id)
	return nil
}

func (f *fakeStore) Archive(_ context.Context, id uuid.UUID, orgID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok || q.OrganizationID != orgID || q.ArchivedAt != nil {
		return apperr.NotFound("quotation not found")
	}
	q.ArchivedAt = &at
	return nil
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []repository.Quotation
	for _, q := range f.quotations {
		if q.OrganizationID != params.OrganizationID {
			continue
		}
		if params.EventID != nil && q.EventID != *params.EventID {
			continue
		}
		if params.Status != nil && q.Status != *params.Status {
			continue
		}
		items = append(items, *q)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return &repository.ListResult{Items: items, Total: len(items), Page: params.Page, PageSize: params.PageSize, TotalPages: 1}, nil
}

func (f *fakeStore) CreateCascadeRun(_ context.Context, run *repository.CascadeRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *run
	cp.Steps = append([]repository.CascadeStep(nil), run.Steps...)
	f.runs[run.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateCascadeStep(_ context.Context, orgID uuid.UUID, step repository.CascadeStep) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[step.RunID]
	if !ok || run.OrganizationID != orgID {
		return false, apperr.NotFound("cascade step not found")
	}
	partial := false
	found := false
	for i := range run.Steps {
		if run.Steps[i].Step == step.Step {
			step.Position = run.Steps[i].Position
			run.Steps[i] = step
			found = true
		}
		if run.Steps[i].Status == "failed" {
			partial = true
		}
	}
	if !found {
		return false, apperr.NotFound("cascade step not found")
	}
	run.Partial = partial
	return partial, nil
}

func (f *fakeStore) GetCascadeRun(_ context.Context, runID uuid.UUID, orgID uuid.UUID) (*repository.CascadeRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok || run.OrganizationID != orgID {
		return nil, apperr.NotFound("cascade run not found")
	}
	cp := *run
	cp.Steps = append([]repository.CascadeStep(nil), run.Steps...)
	return &cp, nil
}

func (f *fakeStore) ListCascadeRuns(_ context.Context, quotationID uuid.UUID, orgID uuid.UUID) ([]repository.CascadeRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var runs []repository.CascadeRun
	for _, run := range f.runs {
		if run.QuotationID == quotationID && run.OrganizationID == orgID {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

type fakeCatalog struct {
	services map[uuid.UUID]CatalogService
}

func (f *fakeCatalog) FetchCatalog(_ context.Context, _ uuid.UUID, _ *uuid.UUID) ([]CatalogService, error) {
	out := make([]CatalogService, 0, len(f.services))
	for _, svc := range f.services {
		out = append(out, svc)
	}
	return out, nil
}

func (f *fakeCatalog) GetServicesByIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]CatalogService, error) {
	var out []CatalogService
	for _, id := range ids {
		if svc, ok := f.services[id]; ok {
			out = append(out, svc)
		}
	}
	return out, nil
}

type fakeConfig struct {
	cfg pricing.Configuration
}

func (f *fakeConfig) FetchPricingConfiguration(context.Context, uuid.UUID) (pricing.Configuration, error) {
	return f.cfg, nil
}

type memoryDrafts struct {
	mu    sync.Mutex
	items map[uuid.UUID][]byte
}

func (m *memoryDrafts) SaveDraft(_ context.Context, _, draftID uuid.UUID, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[draftID] = payload
	return nil
}

func (m *memoryDrafts) LoadDraft(_ context.Context, _, draftID uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.items[draftID]
	if !ok {
		return nil, apperr.NotFound("draft not found")
	}
	return payload, nil
}

func (m *memoryDrafts) DeleteDraft(_ context.Context, _, draftID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, draftID)
	return nil
}

type stageCall struct {
	Stage   string
	Advance bool
}

type fakeStages struct {
	calls []stageCall
	err   error
}

func (f *fakeStages) AdvanceEventStage(_ context.Context, _, _ uuid.UUID, stage string, _ uuid.UUID, _ uuid.UUID) error {
	f.calls = append(f.calls, stageCall{Stage: stage, Advance: true})
	return f.err
}

func (f *fakeStages) RevertEventStage(_ context.Context, _, _ uuid.UUID, stage string, _ uuid.UUID, _ uuid.UUID) error {
	f.calls = append(f.calls, stageCall{Stage: stage})
	return f.err
}

type fakePayments struct {
	payments  []PaymentInfo
	voidErr   error
	voidCalls int
}

func (f *fakePayments) ListPayments(context.Context, uuid.UUID, uuid.UUID) ([]PaymentInfo, error) {
	return f.payments, nil
}

func (f *fakePayments) VoidPayments(context.Context, uuid.UUID, uuid.UUID) error {
	f.voidCalls++
	return f.voidErr
}

type fakeBookings struct {
	bookings     []BookingInfo
	reserveCalls int
	removeCalls  int
}

func (f *fakeBookings) ReserveBooking(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
	f.reserveCalls++
	return nil
}

func (f *fakeBookings) RemoveBookings(context.Context, uuid.UUID, uuid.UUID) error {
	f.removeCalls++
	return nil
}

func (f *fakeBookings) ListBookings(context.Context, uuid.UUID, uuid.UUID) ([]BookingInfo, error) {
	return f.bookings, nil
}

type fakeRetries struct {
	scheduled []CascadeRetry
}

func (f *fakeRetries) ScheduleCascadeRetry(_ context.Context, retry CascadeRetry) error {
	f.scheduled = append(f.scheduled, retry)
	return nil
}

var errProviderTimeout = errors.New("provider timeout")

type fixture struct {
	svc      *Service
	store    *fakeStore
	catalog  *fakeCatalog
	stages   *fakeStages
	payments *fakePayments
	bookings *fakeBookings
	retries  *fakeRetries
	drafts   *memoryDrafts
	orgID    uuid.UUID
	actorID  uuid.UUID
	eventID  uuid.UUID
	band     uuid.UUID
	venue    uuid.UUID
}

// newFixture prices two catalog services at a 30% service margin:
// band costs 350 (price 500.00) and venue costs 210 (price 300.00).
func newFixture() *fixture {
	f := &fixture{
		store:    newFakeStore(),
		stages:   &fakeStages{},
		payments: &fakePayments{},
		bookings: &fakeBookings{},
		retries:  &fakeRetries{},
		drafts:   &memoryDrafts{items: map[uuid.UUID][]byte{}},
		orgID:    uuid.New(),
		actorID:  uuid.New(),
		eventID:  uuid.New(),
		band:     uuid.New(),
		venue:    uuid.New(),
	}
	f.catalog = &fakeCatalog{services: map[uuid.UUID]CatalogService{
		f.band:  {ID: f.band, Name: "Banda", SectionName: "Música", CategoryName: "En vivo", UnitCost: d("350"), UtilityType: pricing.UtilityService},
		f.venue: {ID: f.venue, Name: "Salón", SectionName: "Espacios", CategoryName: "Interior", UnitCost: d("210"), UtilityType: pricing.UtilityService, PublishedPrice: dp("320")},
	}}
	cfg := &fakeConfig{cfg: pricing.Configuration{
		TargetMargins: map[pricing.UtilityType]decimal.Decimal{
			pricing.UtilityService: d("0.30"),
			pricing.UtilityProduct: d("0.20"),
		},
		PaymentSurcharges: map[string]decimal.Decimal{"card": d("0.035")},
		Guardrail:         pricing.DefaultGuardrailPolicy(),
	}}

	f.svc = New(f.store, f.catalog, cfg, f.drafts, logger.New("test"))
	f.svc.SetCascadeCollaborators(f.stages, f.payments, f.bookings)
	f.svc.SetCascadeRetryScheduler(f.retries, 3)
	return f
}

// seedQuotation stores a quotation directly, bypassing pricing.
func (f *fixture) seedQuotation(status string, total string, mode string) *repository.Quotation {
	now := time.Now()
	q := &repository.Quotation{
		ID:             uuid.New(),
		OrganizationID: f.orgID,
		EventID:        f.eventID,
		Name:           "Boda",
		Subtotal:       d(total),
		Total:          d(total),
		PriceMode:      mode,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	band := f.band
	f.store.quotations[q.ID] = q
	f.store.lines[q.ID] = []repository.QuotationLine{{
		ID:               uuid.New(),
		QuotationID:      q.ID,
		OrganizationID:   f.orgID,
		CatalogServiceID: &band,
		SectionName:      "Música",
		CategoryName:     "En vivo",
		ItemName:         "Banda",
		UnitPrice:        d(total).Div(d("2")),
		UnitCost:         d("350"),
		UtilityType:      "service",
		Quantity:         2,
	}}
	return q
}
