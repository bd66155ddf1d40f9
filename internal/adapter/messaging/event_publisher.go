package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/ports"
	"github.com/srgjo27/boat_booking/internal/platform/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes lifecycle events keyed by booking id, so every event
// of one booking lands on the same partition in order.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	log     logrus.FieldLogger
}

func newKafkaPublisher(writer messageWriter, log logrus.FieldLogger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, timeout: 5 * time.Second, log: log}
}

// NewEventPublisher returns a Kafka publisher, or a log-only publisher when no
// brokers are configured.
func NewEventPublisher(cfg config.KafkaConfig, log logrus.FieldLogger) (ports.EventPublisher, func() error) {
	log = log.WithField("component", "event_publisher")

	if len(cfg.Brokers) == 0 {
		log.Warn("no kafka brokers configured, lifecycle events will only be logged")
		return &LogPublisher{log: log}, func() error { return nil }
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	log.WithFields(logrus.Fields{"brokers": cfg.Brokers, "topic": cfg.Topic}).Info("kafka producer configured")
	p := newKafkaPublisher(writer, log)
	return p, p.Close
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal lifecycle event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.BookingID.String()),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", event.Type, err)
	}

	p.log.WithFields(logrus.Fields{
		"event":      event.Type,
		"booking_id": event.BookingID,
	}).Debug("lifecycle event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	log logrus.FieldLogger
}

func (p *LogPublisher) Publish(_ context.Context, event domain.LifecycleEvent) error {
	p.log.WithFields(logrus.Fields{
		"event":          event.Type,
		"booking_id":     event.BookingID,
		"schedule_id":    event.ScheduleID,
		"status":         event.Status,
		"payment_status": event.PaymentStatus,
		"reason":         event.Reason,
	}).Info("lifecycle event")
	return nil
}
