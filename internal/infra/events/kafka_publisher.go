package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"course-marketplace/internal/config"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/metrics"
)

var _ adapter.EventPublisher = (*KafkaPublisher)(nil)

var (
	ErrQueueFull       = errors.New("event queue full")
	ErrPublisherClosed = errors.New("event publisher closed")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes request lifecycle events as JSON, keyed by user id so
// that one user's events stay ordered within a partition. Publish only queues
// the batch; a single background goroutine writes it to the broker.
type KafkaPublisher struct {
	w       messageWriter
	topic   string
	timeout time.Duration
	log     *zerolog.Logger

	queue     chan []model.RequestEvent
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

const (
	queueSize    = 256
	writeTimeout = 10 * time.Second
)

func NewKafkaPublisher(cfg config.KafkaConfig, logger *zerolog.Logger) *KafkaPublisher {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           writeTimeout,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	l := logger.With().Str("component", "KafkaPublisher").Str("topic", cfg.Topic).Logger()
	l.Info().Strs("brokers", brokers).Msg("kafka publisher initialized")
	return newKafkaPublisher(w, cfg.Topic, &l, queueSize)
}

func newKafkaPublisher(w messageWriter, topic string, logger *zerolog.Logger, size int) *KafkaPublisher {
	p := &KafkaPublisher{
		w:       w,
		topic:   topic,
		timeout: writeTimeout,
		log:     logger,
		queue:   make(chan []model.RequestEvent, size),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish queues events for delivery and returns immediately. Delivery does
// not depend on ctx. A full queue or a closed publisher drops the batch.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...model.RequestEvent) error {
	if len(events) == 0 {
		return nil
	}
	select {
	case <-p.stop:
		p.count(events, "dropped")
		return ErrPublisherClosed
	default:
	}
	select {
	case p.queue <- events:
		return nil
	default:
		p.count(events, "dropped")
		return ErrQueueFull
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for {
		select {
		case events := <-p.queue:
			p.write(events)
		case <-p.stop:
			for {
				select {
				case events := <-p.queue:
					p.write(events)
				default:
					return
				}
			}
		}
	}
}

func (p *KafkaPublisher) write(events []model.RequestEvent) {
	msgs, err := buildMessages(events)
	if err != nil {
		p.count(events, "error")
		p.log.Error().Err(err).Msg("encode events failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		p.count(events, "error")
		p.log.Warn().Err(err).Int("events", len(events)).Msg("kafka write failed")
		return
	}
	p.count(events, "ok")
	for _, e := range events {
		p.log.Debug().Str("event_type", string(e.Type)).Str("payment_request_id", e.RequestID).Msg("event published")
	}
}

func (p *KafkaPublisher) count(events []model.RequestEvent, result string) {
	for _, e := range events {
		metrics.IncEventPublished(string(e.Type), result)
	}
}

// Close flushes queued events and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.stop) })
	<-p.done
	return p.w.Close()
}

func buildMessages(events []model.RequestEvent) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		body, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode event %s: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.UserID),
			Value: body,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
				{Key: "event_id", Value: []byte(e.ID)},
			},
		})
	}
	return msgs, nil
}

// NoopPublisher drops events. It is used when no brokers are configured.
type NoopPublisher struct {
	log *zerolog.Logger
}

var _ adapter.EventPublisher = (*NoopPublisher)(nil)

func NewNoopPublisher(logger *zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{log: logger}
}

func (n *NoopPublisher) Publish(ctx context.Context, events ...model.RequestEvent) error {
	for _, e := range events {
		n.log.Debug().Str("event_type", string(e.Type)).Str("payment_request_id", e.RequestID).Msg("[noop-events] dropped")
	}
	return nil
}

func (n *NoopPublisher) Close() error { return nil }

// New picks the Kafka publisher when brokers are configured.
func New(cfg config.KafkaConfig, logger *zerolog.Logger) adapter.EventPublisher {
	if len(cfg.Brokers) == 0 {
		return NewNoopPublisher(logger)
	}
	return NewKafkaPublisher(cfg, logger)
}
