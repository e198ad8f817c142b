package sse

import (
	"testing"

	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
)

func TestPublishToOrganizationOnlyReachesOrgClients(t *testing.T) {
	s := New(logger.New("test"))
	orgA, orgB := uuid.New(), uuid.New()

	streamA, cancelA := s.Subscribe(uuid.New(), orgA)
	defer cancelA()
	streamB, cancelB := s.Subscribe(uuid.New(), orgB)
	defer cancelB()

	s.PublishToOrganization(orgA, Event{Type: EventQuotationSubmitted})

	select {
	case e := <-streamA:
		if e.Type != EventQuotationSubmitted {
			t.Fatalf("unexpected event type %s", e.Type)
		}
	default:
		t.Fatalf("expected org A client to receive the event")
	}
	select {
	case e := <-streamB:
		t.Fatalf("org B client must not receive %s", e.Type)
	default:
	}
}

func TestUnsubscribeRemovesClient(t *testing.T) {
	s := New(logger.New("test"))
	orgID := uuid.New()

	stream, cancel := s.Subscribe(uuid.New(), orgID)
	if s.ClientCount(orgID) != 1 {
		t.Fatalf("expected one client")
	}
	cancel()
	if s.ClientCount(orgID) != 0 {
		t.Fatalf("expected client to be removed")
	}
	if _, ok := <-stream; ok {
		t.Fatalf("expected stream to be closed")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	s := New(logger.New("test"))
	orgID := uuid.New()
	stream, cancel := s.Subscribe(uuid.New(), orgID)
	defer cancel()

	for i := 0; i < 40; i++ {
		s.PublishToOrganization(orgID, Event{Type: EventCascadeStepFailed})
	}
	if len(stream) != 32 {
		t.Fatalf("expected buffered events to cap at 32, got %d", len(stream))
	}
}

func TestCloseThenUnsubscribeDoesNotPanic(t *testing.T) {
	s := New(logger.New("test"))
	_, cancel := s.Subscribe(uuid.New(), uuid.New())
	s.Close()
	cancel()
}
