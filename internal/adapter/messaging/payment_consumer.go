package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/platform/config"
)

// PaymentMessage is the payment provider's outcome notification.
type PaymentMessage struct {
	BookingID string `json:"booking_id"`
	Outcome   string `json:"outcome"`
}

type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, outcome domain.PaymentOutcome) (*domain.Booking, error)
}

// PaymentConsumer feeds payment outcomes from a RabbitMQ queue into the
// booking lifecycle. Messages are acked once their outcome is final and
// requeued only on infrastructure failures.
type PaymentConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queue     amqp.Queue
	confirmer PaymentConfirmer
	log       logrus.FieldLogger
}

func NewPaymentConsumer(cfg config.RabbitMQConfig, confirmer PaymentConfirmer, log logrus.FieldLogger) (*PaymentConsumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &PaymentConsumer{
		conn:      conn,
		channel:   channel,
		queue:     q,
		confirmer: confirmer,
		log:       log.WithField("component", "payment_consumer"),
	}, nil
}

func (c *PaymentConsumer) Start(ctx context.Context) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume messages: %w", err)
	}

	c.log.WithField("queue", c.queue.Name).Info("payment consumer started")
	go c.handleDeliveries(ctx, msgs)
	return nil
}

func (c *PaymentConsumer) handleDeliveries(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.log.Warn("delivery channel closed")
				return
			}

			if err := c.Handle(ctx, msg.Body); err != nil {
				c.log.WithError(err).Warn("payment outcome not applied, requeueing")
				msg.Nack(false, true)
			} else {
				msg.Ack(false)
			}
		}
	}
}

// Handle applies one message. It returns an error only when the message
// should be delivered again.
func (c *PaymentConsumer) Handle(ctx context.Context, body []byte) error {
	var m PaymentMessage
	if err := json.Unmarshal(body, &m); err != nil {
		c.log.WithError(err).Error("dropping malformed payment message")
		return nil
	}

	bookingID, err := uuid.Parse(m.BookingID)
	outcome := domain.PaymentOutcome(m.Outcome)
	if err != nil || !outcome.Valid() {
		c.log.WithField("booking_id", m.BookingID).WithField("outcome", m.Outcome).Error("dropping invalid payment message")
		return nil
	}

	_, err = c.confirmer.ConfirmPayment(ctx, bookingID, outcome)
	logger := c.log.WithField("booking_id", bookingID).WithField("outcome", outcome)

	switch {
	case err == nil:
		logger.Info("payment outcome applied")
		return nil
	case domain.IsInfrastructure(err), errors.Is(err, domain.ErrConcurrentUpdate):
		return err
	default:
		logger.WithError(err).Warn("payment outcome settled without change")
		return nil
	}
}

func (c *PaymentConsumer) Close() error {
	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
