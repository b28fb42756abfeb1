package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus.
//
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Synchronous delivery: Publish calls handlers in the caller goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Metrics are collected only while at least one observer is registered.
//
// Handlers run on the publisher's goroutine; for the simulation that is the
// tick loop, so they must not block.
type EventBus interface {
	// Publish delivers the event synchronously to all active subscribers of event.Type().
	Publish(event Event) error

	// Subscribe registers a handler for eventType.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. Safe to call with nil.
	Unsubscribe(sub Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of the counters gathered while observed.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries. Observers should return quickly.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

type EventBusMetrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"deliveredHandlers"`
	Errors            uint64 `json:"errors"`
	SubscribersActive uint64 `json:"subscribersActive"`
}
