// Package outbox publishes roster change events to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"example.com/mergington/internal/events"
)

// MessageWriter is satisfied by KafkaProducer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
	Close() error
}

// RosterPublisher publishes roster events and owns any underlying connections.
type RosterPublisher interface {
	Publish(ctx context.Context, event events.RosterChanged) error
	Close() error
}

// NoopPublisher discards events. Used when no brokers are configured.
type NoopPublisher struct{}

// Publish implements RosterPublisher.
func (NoopPublisher) Publish(context.Context, events.RosterChanged) error { return nil }

// Close implements RosterPublisher.
func (NoopPublisher) Close() error { return nil }

// KafkaPublisher writes roster events as JSON, keyed by activity name so that
// every event for one roster lands on the same partition in order.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

// NewKafkaPublisher constructs a KafkaPublisher.
func NewKafkaPublisher(writer MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

// PublisherConfig selects and tunes the roster event publisher.
type PublisherConfig struct {
	Brokers        []string
	Topic          string
	BufferSize     int
	PublishTimeout time.Duration
}

// NewPublisher returns a Dispatcher feeding a Kafka-backed publisher when
// brokers are configured and a NoopPublisher otherwise.
func NewPublisher(cfg PublisherConfig, logger *zap.Logger) RosterPublisher {
	if len(cfg.Brokers) == 0 {
		return NoopPublisher{}
	}
	kafkaPublisher := NewKafkaPublisher(NewKafkaProducer(cfg.Brokers), cfg.Topic)
	return NewDispatcher(kafkaPublisher, cfg.BufferSize, cfg.PublishTimeout, logger)
}

// Publish implements RosterPublisher.
func (p *KafkaPublisher) Publish(ctx context.Context, event events.RosterChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ActivityName),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, p.topic, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", event.EventType, p.topic, err)
	}
	return nil
}

// Close releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaProducer lazily creates one kafka.Writer per topic.
type KafkaProducer struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// WriteMessages implements MessageWriter.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writer(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[topic]
	if !ok {
		// Hash balancing keeps each activity's events on one partition.
		// Events arrive one at a time, so each write flushes immediately
		// instead of waiting out the default one second batch timeout.
		w = &kafka.Writer{
			Addr:                   kafka.TCP(p.brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchSize:              1,
			BatchTimeout:           10 * time.Millisecond,
		}
		p.writers[topic] = w
	}
	return w
}

// Close implements MessageWriter and releases all writers.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}
