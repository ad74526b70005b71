package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shareit/internal/events"
	"shareit/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher delivers a message to a broker subject. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Envelope is the message body published for every domain event.
type Envelope struct {
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

type ForwarderConfig struct {
	SubjectPrefix string
	QueueSize     int
	Retry         RetryPolicy
	DeadLetterKey string
}

// EventForwarder relays events from the in-process bus to a message broker.
// Handle never blocks the publishing request; delivery happens in Start.
type EventForwarder struct {
	publisher     Publisher
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan *events.Event
	subjectPrefix string
	deadLetterKey string
	logger        *zerolog.Logger
}

// NewEventForwarder builds a forwarder with sane defaults. redisClient is
// optional and only used to park events that exhausted their retries.
func NewEventForwarder(publisher Publisher, redisClient *redis.Client, cfg ForwarderConfig, logger *zerolog.Logger) *EventForwarder {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "shareit.events"
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.DeadLetterKey == "" {
		cfg.DeadLetterKey = "shareit:events:deadletter"
	}

	return &EventForwarder{
		publisher:     publisher,
		redis:         redisClient,
		retryPolicy:   cfg.Retry.withDefaults(),
		queue:         make(chan *events.Event, cfg.QueueSize),
		subjectPrefix: cfg.SubjectPrefix,
		deadLetterKey: cfg.DeadLetterKey,
		logger:        logger,
	}
}

// Subject returns the broker subject for an event type.
func (f *EventForwarder) Subject(eventType string) string {
	return f.subjectPrefix + "." + eventType
}

// Handle is an events.EventHandler. A full queue drops the event.
func (f *EventForwarder) Handle(event *events.Event) error {
	select {
	case f.queue <- event:
	default:
		metrics.IncForwarded(event.Type, "dropped")
		f.logger.Warn().Str("event", event.Type).Msg("event queue full, event dropped")
	}
	return nil
}

// Start drains the queue until ctx is done.
func (f *EventForwarder) Start(ctx context.Context) {
	f.logger.Info().Msg("event forwarder started")
	defer f.logger.Info().Msg("event forwarder stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-f.queue:
			f.forward(ctx, event)
		}
	}
}

func (f *EventForwarder) forward(ctx context.Context, event *events.Event) {
	data, err := json.Marshal(Envelope{Type: event.Type, CreatedAt: event.CreatedAt, Payload: event.Payload})
	if err != nil {
		f.logger.Error().Err(err).Str("event", event.Type).Msg("encode event envelope")
		return
	}

	subject := f.Subject(event.Type)
	for attempt := 1; ; attempt++ {
		err := f.publisher.Publish(subject, data)
		if err == nil {
			metrics.IncForwarded(event.Type, "ok")
			return
		}

		if f.retryPolicy.Exhausted(attempt) {
			f.logger.Error().Err(err).Str("subject", subject).Int("attempts", attempt).Msg("event delivery failed")
			f.pushDeadLetter(ctx, event.Type, data)
			return
		}

		metrics.IncForwarded(event.Type, "retry")
		delay := f.retryPolicy.NextDelay(attempt)
		f.logger.Warn().Err(err).Str("subject", subject).Dur("retry_in", delay).Msg("event publish failed")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			f.pushDeadLetter(context.Background(), event.Type, data)
			return
		case <-timer.C:
		}
	}
}

func (f *EventForwarder) pushDeadLetter(ctx context.Context, eventType string, data []byte) {
	metrics.IncForwarded(eventType, "dead_letter")
	if f.redis == nil {
		return
	}
	if err := f.redis.LPush(ctx, f.deadLetterKey, data).Err(); err != nil && !errors.Is(err, context.Canceled) {
		f.logger.Error().Err(err).Str("event", eventType).Msg("dead letter push failed")
	}
}
