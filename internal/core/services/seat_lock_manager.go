package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/ports"
	"github.com/srgjo27/boat_booking/internal/platform/config"
	"github.com/srgjo27/boat_booking/internal/platform/metrics"
)

// Clock returns the current time. Services take one so tests can move time.
type Clock func() time.Time

// SeatLockManager admits provisional seat holds against capacity. A schedule's
// availability is capacity minus confirmed seats minus live holds, and every
// admission decision is taken atomically inside the lock store.
type SeatLockManager struct {
	schedules ports.ScheduleRepository
	store     ports.SeatLockStore
	cfg       config.BookingConfig
	now       Clock
	log       logrus.FieldLogger
}

func NewSeatLockManager(schedules ports.ScheduleRepository, store ports.SeatLockStore, cfg config.BookingConfig, clock Clock, log logrus.FieldLogger) *SeatLockManager {
	if clock == nil {
		clock = time.Now
	}
	return &SeatLockManager{
		schedules: schedules,
		store:     store,
		cfg:       cfg,
		now:       clock,
		log:       log.WithField("component", "seat_lock_manager"),
	}
}

// Acquire places a hold of seats on the schedule for holderID.
func (m *SeatLockManager) Acquire(ctx context.Context, scheduleID, holderID uuid.UUID, seats int) (domain.SeatHold, error) {
	if seats < 1 {
		return domain.SeatHold{}, domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}

	schedule, err := m.getSchedule(ctx, scheduleID)
	if err != nil {
		return domain.SeatHold{}, err
	}

	now := m.now()
	if !schedule.IsBookable(now) {
		return domain.SeatHold{}, domain.ErrScheduleNotBookable
	}

	return m.AcquireForSchedule(ctx, schedule, holderID, seats, now)
}

// AcquireForSchedule is Acquire for a schedule the caller has just loaded.
// The schedule's BookedSeats is the durable count the hold is admitted against.
func (m *SeatLockManager) AcquireForSchedule(ctx context.Context, schedule *domain.TripSchedule, holderID uuid.UUID, seats int, now time.Time) (domain.SeatHold, error) {
	if seats < 1 {
		return domain.SeatHold{}, domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}

	if seats > schedule.Capacity {
		metrics.TrackHoldOutcome("insufficient_capacity")
		return domain.SeatHold{}, domain.ErrCapacityExceeded
	}

	lockCtx, cancel := context.WithTimeout(ctx, m.cfg.LockTimeout)
	defer cancel()

	started := time.Now()
	hold, rejection, err := m.store.Acquire(lockCtx, ports.HoldRequest{
		ScheduleID: schedule.ID,
		HolderID:   holderID,
		Seats:      seats,
		Durable:    schedule.BookedSeats,
		Capacity:   schedule.Capacity,
		Token:      uuid.NewString(),
		Now:        now,
		TTL:        m.cfg.HoldTTL,
	})
	metrics.TrackLockStore("acquire", started)

	if err != nil {
		metrics.TrackHoldOutcome("store_error")
		m.log.WithError(err).WithField("schedule_id", schedule.ID).Error("seat lock store unavailable, refusing hold")
		return domain.SeatHold{}, domain.Infra("acquire seat hold", err)
	}

	switch rejection {
	case "":
	case domain.RejectConflictingHold:
		metrics.TrackHoldOutcome("conflicting_hold")
		return domain.SeatHold{}, domain.ErrConflictingHold
	default:
		metrics.TrackHoldOutcome("insufficient_capacity")
		return domain.SeatHold{}, domain.ErrCapacityExceeded
	}

	metrics.TrackHoldOutcome("admitted")
	m.log.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"holder_id":   holderID,
		"seats":       seats,
		"expires_at":  hold.ExpiresAt,
	}).Debug("seat hold admitted")

	return hold, nil
}

// Release drops the holder's hold when token still matches it. An empty token
// releases whatever the holder has. Releasing a missing hold is not an error.
func (m *SeatLockManager) Release(ctx context.Context, scheduleID, holderID uuid.UUID, token string) error {
	lockCtx, cancel := context.WithTimeout(ctx, m.cfg.LockTimeout)
	defer cancel()

	started := time.Now()
	released, err := m.store.Release(lockCtx, scheduleID, holderID, token)
	metrics.TrackLockStore("release", started)

	if err != nil {
		return domain.Infra("release seat hold", err)
	}

	m.log.WithFields(logrus.Fields{
		"schedule_id": scheduleID,
		"holder_id":   holderID,
		"released":    released,
	}).Debug("seat hold release")
	return nil
}

// Promote shortens a hold whose seats have just been committed to the durable
// counter so that it lapses PromoteGrace from now. Until then the seats are
// counted twice, which can only under-sell.
func (m *SeatLockManager) Promote(ctx context.Context, scheduleID, holderID uuid.UUID, token string) error {
	lockCtx, cancel := context.WithTimeout(ctx, m.cfg.LockTimeout)
	defer cancel()

	started := time.Now()
	_, err := m.store.Promote(lockCtx, scheduleID, holderID, token, m.now().Add(m.cfg.PromoteGrace))
	metrics.TrackLockStore("promote", started)

	if err != nil {
		return domain.Infra("promote seat hold", err)
	}
	return nil
}

// AvailableSeats reports capacity minus confirmed seats minus live holds. It
// fails rather than guess when the lock store cannot be read.
func (m *SeatLockManager) AvailableSeats(ctx context.Context, scheduleID uuid.UUID) (int, error) {
	schedule, err := m.getSchedule(ctx, scheduleID)
	if err != nil {
		return 0, err
	}

	return m.AvailableFor(ctx, schedule)
}

// AvailableFor is AvailableSeats for a schedule the caller has already loaded.
func (m *SeatLockManager) AvailableFor(ctx context.Context, schedule *domain.TripSchedule) (int, error) {
	lockCtx, cancel := context.WithTimeout(ctx, m.cfg.LockTimeout)
	defer cancel()

	started := time.Now()
	live, err := m.store.LiveSeats(lockCtx, schedule.ID, m.now())
	metrics.TrackLockStore("live_seats", started)

	if err != nil {
		return 0, domain.Infra("read live holds", err)
	}

	available := schedule.Capacity - schedule.BookedSeats - live
	if available < 0 {
		available = 0
	}
	return available, nil
}

func (m *SeatLockManager) getSchedule(ctx context.Context, scheduleID uuid.UUID) (*domain.TripSchedule, error) {
	readCtx, cancel := context.WithTimeout(ctx, m.cfg.TxTimeout)
	defer cancel()
	return m.schedules.GetByID(readCtx, scheduleID)
}
