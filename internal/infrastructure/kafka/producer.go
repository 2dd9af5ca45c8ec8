package kafka

import (
	"context"
	"fmt"
	"time"

	"habit-hero/internal/config"
	"habit-hero/internal/domain/entity"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const eventTypeHeader = "event_type"

// Producer publishes domain events to Kafka
type Producer struct {
	writer *kafka.Writer
	logger *log.Logger
}

// NewProducer creates a new Kafka producer. Writes are asynchronous; delivery failures
// are logged from the completion callback.
func NewProducer(cfg config.KafkaConfig, logger *log.Logger) *Producer {
	logger = logger.With("component", "kafka-producer")

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // keyed by habit id, so one habit's events stay ordered
		BatchSize:    10,
		BatchTimeout: cfg.BatchTimeout,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("failed to deliver events", "count", len(messages), "err", err)
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// Publish enqueues events for delivery
func (p *Producer) Publish(ctx context.Context, events ...entity.Event) error {
	messages := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := EncodeEvent(e)
		if err != nil {
			return err
		}
		messages = append(messages, msg)
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}

	p.logger.Debug("published events", "count", len(messages))
	return nil
}

// Close flushes pending messages and closes the producer
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// EncodeEvent renders an event as a protobuf Struct in its JSON form, keyed by habit id
func EncodeEvent(e entity.Event) (kafka.Message, error) {
	attrs := e.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}

	payload, err := structpb.NewStruct(map[string]any{
		"event_id":    e.ID.String(),
		"event_type":  string(e.Type),
		"habit_id":    e.HabitID.String(),
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339Nano),
		"attributes":  attrs,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to build %s event: %w", e.Type, err)
	}

	data, err := protojson.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s event: %w", e.Type, err)
	}

	return kafka.Message{
		Key:   []byte(e.HabitID.String()),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(e.Type)},
		},
	}, nil
}

// decodeEvent parses a message value produced by EncodeEvent
func decodeEvent(value []byte) (entity.Event, error) {
	var payload structpb.Struct
	if err := protojson.Unmarshal(value, &payload); err != nil {
		return entity.Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	fields := payload.AsMap()
	str := func(key string) string {
		s, _ := fields[key].(string)
		return s
	}

	id, err := uuid.Parse(str("event_id"))
	if err != nil {
		return entity.Event{}, fmt.Errorf("invalid event id: %w", err)
	}
	habitID, err := uuid.Parse(str("habit_id"))
	if err != nil {
		return entity.Event{}, fmt.Errorf("invalid habit id: %w", err)
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, str("occurred_at"))
	if err != nil {
		return entity.Event{}, fmt.Errorf("invalid occurred_at: %w", err)
	}

	attrs, _ := fields["attributes"].(map[string]any)

	return entity.Event{
		ID:         id,
		Type:       entity.EventType(str("event_type")),
		HabitID:    habitID,
		OccurredAt: occurredAt,
		Attributes: attrs,
	}, nil
}
