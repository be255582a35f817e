package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ikkim/storefront-backend/internal/metrics"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	TicketCreated       = "ticket.created"
	TicketStatusChanged = "ticket.status_changed"
	ProductCreated      = "product.created"
	ProductUpdated      = "product.updated"
	ProductDeleted      = "product.deleted"
	UserBlocked         = "user.blocked"
	UserUnblocked       = "user.unblocked"
	UserRoleChanged     = "user.role_changed"
)

// Event is a domain fact published to the broker. Key selects the partition
// so events about one entity stay ordered.
type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func New(eventType, key string, payload interface{}) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KafkaPublisher writes events as JSON to a single topic
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, msg)
	metrics.RecordEvent(event.Type, err)
	if err != nil {
		return fmt.Errorf("kafka: write %s: %w", event.Type, err)
	}

	logger.Debug("Event published", map[string]interface{}{
		"type": event.Type,
		"key":  event.Key,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(event Event) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: marshal %s: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.Key),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}

// NoopPublisher drops events; used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }

// PublishAsync sends the event without blocking the caller. Failures are
// logged and never surface to the request.
func PublishAsync(p Publisher, event Event) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, event); err != nil {
			logger.Warn("Failed to publish event", map[string]interface{}{
				"type":  event.Type,
				"key":   event.Key,
				"error": err.Error(),
			})
		}
	}()
}
