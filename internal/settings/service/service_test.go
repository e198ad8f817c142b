package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/settings/transport"
	"eventquote_backend/platform/apperr"
	"eventquote_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type fakeStore struct {
	mu         sync.Mutex
	configs    map[uuid.UUID]pricing.Configuration
	conditions map[uuid.UUID][]pricing.CommercialCondition
	loads      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		configs:    map[uuid.UUID]pricing.Configuration{},
		conditions: map[uuid.UUID][]pricing.CommercialCondition{},
	}
}

func (f *fakeStore) GetPricingConfiguration(_ context.Context, orgID uuid.UUID) (pricing.Configuration, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	cfg, ok := f.configs[orgID]
	return cfg, ok, nil
}

func (f *fakeStore) SavePricingConfiguration(_ context.Context, orgID uuid.UUID, cfg pricing.Configuration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs[orgID] = cfg
	return nil
}

func (f *fakeStore) ListCommercialConditions(_ context.Context, orgID uuid.UUID) ([]pricing.CommercialCondition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pricing.CommercialCondition{}, f.conditions[orgID]...), nil
}

func (f *fakeStore) CreateCommercialCondition(_ context.Context, orgID uuid.UUID, c pricing.CommercialCondition) (pricing.CommercialCondition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.New()
	f.conditions[orgID] = append(f.conditions[orgID], c)
	return c, nil
}

func (f *fakeStore) DeleteCommercialCondition(_ context.Context, orgID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.conditions[orgID]
	for i, c := range list {
		if c.ID == id {
			f.conditions[orgID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("commercial condition not found")
}

func newTestService(t *testing.T) (*Service, *fakeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeStore()
	svc := New(store, NewRedisCache(client, time.Minute), BuiltinDefaults(), logger.New("test"))
	return svc, store, mr
}

func TestFetchPricingConfigurationFallsBackToDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	cfg, err := svc.FetchPricingConfiguration(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.TargetMargins[pricing.UtilityService].Equal(decimal.RequireFromString("0.30")) {
		t.Fatalf("expected default service margin 0.30, got %s", cfg.TargetMargins[pricing.UtilityService])
	}
	if !cfg.Guardrail.MinMargin.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("expected default min margin 0.25, got %s", cfg.Guardrail.MinMargin)
	}
}

func TestFetchPricingConfigurationIsCached(t *testing.T) {
	svc, store, mr := newTestService(t)
	orgID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.FetchPricingConfiguration(ctx, orgID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.loads != 1 {
		t.Fatalf("expected a single store load, got %d", store.loads)
	}
	if !mr.Exists(cacheKeyPrefix + orgID.String()) {
		t.Fatalf("expected configuration to be cached in redis")
	}
}

func TestUpdatePricingConfigurationInvalidatesCache(t *testing.T) {
	svc, _, _ := newTestService(t)
	orgID := uuid.New()
	ctx := context.Background()

	if _, err := svc.FetchPricingConfiguration(ctx, orgID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.UpdatePricingConfiguration(ctx, orgID, transport.UpdatePricingConfigurationRequest{
		ServiceMargin:     decimal.RequireFromString("0.40"),
		ProductMargin:     decimal.RequireFromString("0.15"),
		PaymentSurcharges: map[string]decimal.Decimal{"card": decimal.RequireFromString("0.035")},
		Guardrail: transport.GuardrailRequest{
			MaxVariancePct: decimal.RequireFromString("0.10"),
			MaxVarianceAbs: decimal.RequireFromString("500"),
			MinMargin:      decimal.RequireFromString("0.20"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := svc.FetchPricingConfiguration(ctx, orgID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.TargetMargins[pricing.UtilityService].Equal(decimal.RequireFromString("0.40")) {
		t.Fatalf("expected updated service margin, got %s", cfg.TargetMargins[pricing.UtilityService])
	}
	if !cfg.PaymentSurcharges["card"].Equal(decimal.RequireFromString("0.035")) {
		t.Fatalf("expected card surcharge, got %v", cfg.PaymentSurcharges)
	}
}

func TestUpdatePricingConfigurationRejectsMarginOfOne(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdatePricingConfiguration(context.Background(), uuid.New(), transport.UpdatePricingConfigurationRequest{
		ServiceMargin: decimal.NewFromInt(1),
		ProductMargin: decimal.RequireFromString("0.20"),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCommercialConditionsAreMergedIntoConfiguration(t *testing.T) {
	svc, _, _ := newTestService(t)
	orgID := uuid.New()
	ctx := context.Background()

	created, err := svc.CreateCommercialCondition(ctx, orgID, transport.CreateCommercialConditionRequest{
		Name:          "Early booking",
		DiscountRate:  decimal.RequireFromString("0.10"),
		PaymentMethod: "transfer",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := svc.FetchPricingConfiguration(ctx, orgID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cond, ok := cfg.Condition(created.ID)
	if !ok || cond.PaymentMethod != "transfer" {
		t.Fatalf("expected condition in configuration, got %+v", cfg.CommercialConditions)
	}
}

func TestParseDefaults(t *testing.T) {
	raw := []byte(`
target_margins:
  service: "0.35"
payment_surcharges:
  card: "0.04"
guardrail:
  max_variance_abs: "750"
`)

	cfg, err := ParseDefaults(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.TargetMargins[pricing.UtilityService].Equal(decimal.RequireFromString("0.35")) {
		t.Fatalf("expected service margin 0.35, got %s", cfg.TargetMargins[pricing.UtilityService])
	}
	if !cfg.TargetMargins[pricing.UtilityProduct].Equal(decimal.RequireFromString("0.20")) {
		t.Fatalf("expected built-in product margin, got %s", cfg.TargetMargins[pricing.UtilityProduct])
	}
	if !cfg.Guardrail.MaxVarianceAbs.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("expected variance abs 750, got %s", cfg.Guardrail.MaxVarianceAbs)
	}
	if !cfg.Guardrail.MaxVariancePct.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("expected built-in variance pct, got %s", cfg.Guardrail.MaxVariancePct)
	}
}

func TestParseDefaultsRejectsInvalidMargin(t *testing.T) {
	if _, err := ParseDefaults([]byte("target_margins:\n  product: \"1.5\"\n")); err == nil {
		t.Fatalf("expected error for margin above 1")
	}
}
