// Package events provides the in-process event bus used to fan domain
// changes out to notification handlers.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName returns the routing key, e.g. "quotations.quotation.submitted".
	EventName() string
	// OccurredAt returns when the change happened.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all events. Embed it.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler processes events it was subscribed to.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher is the side of the bus services depend on.
type Publisher interface {
	// Publish delivers the event asynchronously. Handler errors are logged,
	// never returned.
	Publish(ctx context.Context, event Event)
	// PublishSync delivers the event and returns the joined handler errors.
	PublishSync(ctx context.Context, event Event) error
}

// Subscriber is the side of the bus notification handlers depend on.
type Subscriber interface {
	// Subscribe registers handler for events whose EventName equals eventName.
	Subscribe(eventName string, handler Handler)
}

// Bus publishes and subscribes.
type Bus interface {
	Publisher
	Subscriber
}

var _ Bus = (*InMemoryBus)(nil)
