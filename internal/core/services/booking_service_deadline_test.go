package services_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/ports/mocks"
	"github.com/srgjo27/boat_booking/internal/core/services"
)

// newMockedBookingService wires the booking service to mocks only, with a short
// transaction timeout.
func newMockedBookingService(t *testing.T) (*services.BookingService, *mocks.BookingRepository) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := testBookingConfig
	cfg.TxTimeout = 50 * time.Millisecond

	schedules := mocks.NewScheduleRepository(t)
	bookings := mocks.NewBookingRepository(t)
	locks := services.NewSeatLockManager(schedules, mocks.NewSeatLockStore(t), cfg, nil, log)
	svc := services.NewBookingService(schedules, bookings, locks, mocks.NewCacheInvalidator(t), mocks.NewEventPublisher(t), cfg, nil, log)
	return svc, bookings
}

// waitForDeadline blocks like a stalled database read until the caller's
// context gives up.
func waitForDeadline(t *testing.T) func(mock.Arguments) {
	return func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "repository read must carry a deadline")
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
	}
}

func TestConfirmPayment_StalledReadIsBounded(t *testing.T) {
	svc, bookings := newMockedBookingService(t)
	id := uuid.New()

	bookings.On("GetByID", mock.Anything, id).
		Run(waitForDeadline(t)).
		Return(nil, domain.Infra("get booking", context.DeadlineExceeded))

	start := time.Now()
	_, err := svc.ConfirmPayment(context.Background(), id, domain.OutcomeSucceeded)

	assert.True(t, domain.IsInfrastructure(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestCancelBooking_StalledReadIsBounded(t *testing.T) {
	svc, bookings := newMockedBookingService(t)
	id := uuid.New()

	bookings.On("GetByID", mock.Anything, id).
		Run(waitForDeadline(t)).
		Return(nil, domain.Infra("get booking", context.DeadlineExceeded))

	start := time.Now()
	_, err := svc.CancelBooking(context.Background(), id, services.Requester{UserID: uuid.New()})

	assert.True(t, domain.IsInfrastructure(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSweepExpiredHolds_StalledReadIsBounded(t *testing.T) {
	svc, bookings := newMockedBookingService(t)

	bookings.On("GetExpiredHolds", mock.Anything, mock.AnythingOfType("time.Time"), testBookingConfig.SweepBatch).
		Run(waitForDeadline(t)).
		Return(nil, domain.Infra("get expired holds", context.DeadlineExceeded))

	start := time.Now()
	n, err := svc.SweepExpiredHolds(context.Background())

	assert.Zero(t, n)
	assert.True(t, domain.IsInfrastructure(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestGetBooking_NotFound(t *testing.T) {
	svc, bookings := newMockedBookingService(t)
	id := uuid.New()

	bookings.On("GetByID", mock.Anything, id).Return(nil, domain.ErrBookingNotFound)

	_, err := svc.GetBooking(context.Background(), id, services.Requester{UserID: uuid.New()})

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	assert.False(t, domain.IsInfrastructure(err))
}
