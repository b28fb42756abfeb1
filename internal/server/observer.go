package server

import (
	"time"

	"github.com/zeusync/drain/internal/core/events/bus"
	"github.com/zeusync/drain/internal/core/observability/log"
)

// busObserver watches deliveries to the server's handlers. While it is
// attached the bus keeps the counters reported by /health.
type busObserver struct {
	logger log.Log
	slow   time.Duration
}

var _ bus.EventBusObserver = (*busObserver)(nil)

func (o *busObserver) OnPublish(string, bus.Event) {}

func (o *busObserver) OnDelivered(eventType string, handlers int, err error, duration time.Duration) {
	if err != nil {
		o.logger.Warn("Event delivery failed",
			log.String("type", eventType),
			log.Int("handlers", handlers),
			log.Error(err))
	}
	if o.slow > 0 && duration > o.slow {
		o.logger.Debug("Slow event delivery",
			log.String("type", eventType),
			log.Int("handlers", handlers),
			log.Duration("duration", duration))
	}
}
