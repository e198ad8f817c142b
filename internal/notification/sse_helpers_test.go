package notification

import (
	"eventquote_backend/internal/notification/sse"

	"github.com/google/uuid"
)

// subscribe attaches a test client to the hub and forwards its events.
func subscribe(hub *sse.Service, orgID uuid.UUID, out chan<- sse.Event) func() {
	events, cancel := hub.Subscribe(uuid.New(), orgID)
	go func() {
		for e := range events {
			out <- e
		}
	}()
	return cancel
}
