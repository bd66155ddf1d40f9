package messaging

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/platform/config"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestKafkaPublisher_KeysByBooking(t *testing.T) {
	writer := &recordingWriter{}
	p := newKafkaPublisher(writer, quietLogger())
	event := domain.LifecycleEvent{
		Type:          domain.EventBookingConfirmed,
		BookingID:     uuid.New(),
		ScheduleID:    uuid.New(),
		Seats:         2,
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.PaymentSucceeded,
		OccurredAt:    time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Equal(t, event.BookingID.String(), string(msg.Key))
	assert.Equal(t, "booking.confirmed", string(msg.Headers[0].Value))

	var decoded domain.LifecycleEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	p := newKafkaPublisher(&recordingWriter{err: kafka.LeaderNotAvailable}, quietLogger())

	err := p.Publish(context.Background(), domain.LifecycleEvent{Type: domain.EventBookingCancelled})

	assert.ErrorIs(t, err, kafka.LeaderNotAvailable)
}

func TestNewEventPublisher_FallsBackToLog(t *testing.T) {
	p, closeFn := NewEventPublisher(config.KafkaConfig{Topic: "booking.lifecycle"}, quietLogger())

	assert.IsType(t, &LogPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), domain.LifecycleEvent{Type: domain.EventBookingReserved}))
	assert.NoError(t, closeFn())
}
