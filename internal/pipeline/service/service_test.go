package service

import (
	"context"
	"sync"
	"testing"

	"eventquote_backend/internal/events"
	"eventquote_backend/internal/pipeline/repository"
	"eventquote_backend/internal/pipeline/transport"
	"eventquote_backend/internal/quotations/lifecycle"
	"eventquote_backend/platform/apperr"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu      sync.Mutex
	events  map[uuid.UUID]*repository.Event
	history []repository.StageChange
}

func newMemoryStore() *memoryStore {
	return &memoryStore{events: map[uuid.UUID]*repository.Event{}}
}

func (m *memoryStore) CreateEvent(_ context.Context, e *repository.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memoryStore) GetEvent(_ context.Context, id, orgID uuid.UUID) (*repository.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.OrganizationID != orgID {
		return nil, apperr.NotFound("event not found")
	}
	cp := *e
	return &cp, nil
}

func (m *memoryStore) SetStage(_ context.Context, p repository.SetStageParams) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[p.EventID]
	if !ok || e.OrganizationID != p.OrganizationID {
		return "", false, apperr.NotFound("event not found")
	}
	old := e.PipelineStage
	if old == p.Stage {
		return old, false, nil
	}
	e.PipelineStage = p.Stage
	m.history = append(m.history, repository.StageChange{
		EventID: p.EventID, OldStage: old, NewStage: p.Stage, QuotationID: p.QuotationID, ActorID: p.ActorID, Reason: p.Reason,
	})
	return old, true, nil
}

func (m *memoryStore) ListStageHistory(_ context.Context, eventID, _ uuid.UUID) ([]repository.StageChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.StageChange
	for _, h := range m.history {
		if h.EventID == eventID {
			out = append(out, h)
		}
	}
	return out, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func TestAdvanceEventStageIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	bus := &recordingBus{}
	svc := New(store, logger.New("test"))
	svc.SetEventBus(bus)

	ctx := context.Background()
	orgID := uuid.New()
	created, err := svc.CreateEvent(ctx, orgID, transport.CreateEventRequest{Name: "Wedding", EventDate: "2026-06-12"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.PipelineStage != lifecycle.StageNew {
		t.Fatalf("expected new stage, got %s", created.PipelineStage)
	}

	quotationID, actorID := uuid.New(), uuid.New()
	for i := 0; i < 2; i++ {
		if err := svc.AdvanceEventStage(ctx, orgID, created.ID, lifecycle.StageCommercialApproved, quotationID, actorID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	history, err := svc.ListStageHistory(ctx, orgID, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one stage change, got %d", len(history))
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(bus.events))
	}
	changed, ok := bus.events[0].(events.PipelineStageChanged)
	if !ok || changed.NewStage != lifecycle.StageCommercialApproved || changed.OldStage != lifecycle.StageNew {
		t.Fatalf("unexpected event: %#v", bus.events[0])
	}
}

func TestRevertEventStageWithoutActor(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, logger.New("test"))
	ctx := context.Background()
	orgID := uuid.New()

	created, err := svc.CreateEvent(ctx, orgID, transport.CreateEventRequest{Name: "Gala"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	quotationID := uuid.New()
	if err := svc.AdvanceEventStage(ctx, orgID, created.ID, lifecycle.StageCommercialApproved, quotationID, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RevertEventStage(ctx, orgID, created.ID, lifecycle.StageNew, quotationID, uuid.Nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, _ := svc.ListStageHistory(ctx, orgID, created.ID)
	if len(history) != 2 {
		t.Fatalf("expected two stage changes, got %d", len(history))
	}
	last := history[1]
	if last.NewStage != lifecycle.StageNew || last.ActorID != nil || last.Reason != reasonQuotationCancelled {
		t.Fatalf("unexpected revert record: %+v", last)
	}
}

func TestCreateEventRejectsBadDate(t *testing.T) {
	svc := New(newMemoryStore(), logger.New("test"))
	_, err := svc.CreateEvent(context.Background(), uuid.New(), transport.CreateEventRequest{Name: "x", EventDate: "12/06/2026"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdvanceEventStageUnknownEvent(t *testing.T) {
	svc := New(newMemoryStore(), logger.New("test"))
	err := svc.AdvanceEventStage(context.Background(), uuid.New(), uuid.New(), lifecycle.StageCommercialApproved, uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
