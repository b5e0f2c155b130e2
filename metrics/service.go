package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// EventPublisher ships a recorded event to the telemetry backend.
type EventPublisher interface {
	PublishEvent(ctx context.Context, typ EventType, evt DeveloperLogEvent) error
}

type queuedEvent struct {
	typ EventType
	evt DeveloperLogEvent
}

// Service counts every recorded event and forwards it to the publisher from a
// background loop, so recording never blocks a request.
type Service struct {
	publisher      EventPublisher
	queue          chan queuedEvent
	publishTimeout time.Duration
}

// NewService returns a Service with a publish queue of the given size. A nil
// publisher only counts events.
func NewService(p EventPublisher, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Service{publisher: p, queue: make(chan queuedEvent, queueSize), publishTimeout: 10 * time.Second}
}

func (s *Service) RecordEvent(evt DeveloperLogEvent, typ EventType) {
	EventsRecordedTotal.WithLabelValues(string(typ)).Inc()
	if s.publisher == nil {
		log.Debug().Str("type", string(typ)).Msg("metrics: no publisher configured; event counted only")
		return
	}
	select {
	case s.queue <- queuedEvent{typ: typ, evt: evt}:
	default:
		EventsDroppedTotal.Inc()
		log.Warn().Str("type", string(typ)).Msg("metrics: publish queue full; dropping event")
	}
}

// Run publishes queued events until ctx is done.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case q := <-s.queue:
			pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
			if err := s.publisher.PublishEvent(pubCtx, q.typ, q.evt); err != nil {
				log.Error().Err(err).Str("type", string(q.typ)).Msg("metrics: failed to publish event")
			}
			cancel()
		}
	}
}
