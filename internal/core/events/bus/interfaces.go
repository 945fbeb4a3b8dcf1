package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Handlers subscribe by event type and are called synchronously in the
// publisher's goroutine. Errors from several handlers are joined and returned
// from Publish. Metrics are only collected while an observer is registered.
type EventBus interface {
	// Publish delivers the event to every active subscriber of event.Type.
	Publish(event Event) error
	// Subscribe registers a handler for an event type.
	Subscribe(eventType string, handler Handler) (Subscription, error)
	// Unsubscribe cancels the subscription. Nil is accepted and ignored.
	Unsubscribe(Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// Metrics returns a snapshot of the counters.
	Metrics() Metrics
}

// Event is an immutable message routed by Type.
type Event struct {
	Type      string
	Source    string
	Timestamp time.Time
	Data      any
}

// NewEvent stamps an event with the current time.
func NewEvent(typ, src string, data any) Event {
	return Event{Type: typ, Source: src, Timestamp: time.Now(), Data: data}
}

// Handler is invoked per delivered event.
type Handler func(event Event) error

// Subscription is a registered handler bound to one event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified after each delivery. Implementations must return quickly.
type Observer interface {
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

// Metrics counts deliveries while at least one observer is registered.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
