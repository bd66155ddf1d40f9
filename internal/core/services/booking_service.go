package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/ports"
	"github.com/srgjo27/boat_booking/internal/platform/config"
	"github.com/srgjo27/boat_booking/internal/platform/metrics"
)

const maxTransitionAttempts = 3

type ReserveBookingRequest struct {
	UserID      uuid.UUID
	ScheduleID  uuid.UUID
	PriceTierID uuid.UUID
	Passengers  []domain.Passenger
}

// Requester identifies who is acting on a booking.
type Requester struct {
	UserID uuid.UUID
	Admin  bool
}

func (r Requester) owns(b *domain.Booking) bool {
	return r.Admin || r.UserID == b.UserID
}

type BookingService struct {
	schedules ports.ScheduleRepository
	bookings  ports.BookingRepository
	locks     *SeatLockManager
	cache     ports.CacheInvalidator
	events    ports.EventPublisher
	cfg       config.BookingConfig
	now       Clock
	log       logrus.FieldLogger
}

func NewBookingService(
	schedules ports.ScheduleRepository,
	bookings ports.BookingRepository,
	locks *SeatLockManager,
	cache ports.CacheInvalidator,
	events ports.EventPublisher,
	cfg config.BookingConfig,
	clock Clock,
	log logrus.FieldLogger,
) *BookingService {
	if clock == nil {
		clock = time.Now
	}
	return &BookingService{
		schedules: schedules,
		bookings:  bookings,
		locks:     locks,
		cache:     cache,
		events:    events,
		cfg:       cfg,
		now:       clock,
		log:       log.WithField("component", "booking_service"),
	}
}

func (s *BookingService) validateReserve(req ReserveBookingRequest) error {
	if req.UserID == uuid.Nil {
		return domain.ValidationError{Field: "user_id", Msg: "is required"}
	}
	if len(req.Passengers) == 0 {
		return domain.ValidationError{Field: "passengers", Msg: "at least one passenger is required"}
	}
	if len(req.Passengers) > s.cfg.MaxPassengers {
		return domain.ValidationError{Field: "passengers", Msg: "too many passengers for one booking"}
	}
	for _, p := range req.Passengers {
		if strings.TrimSpace(p.FullName) == "" {
			return domain.ValidationError{Field: "passengers.full_name", Msg: "is required"}
		}
	}
	return nil
}

// ReserveBooking holds one seat per passenger and records a held booking that
// waits for payment. Nothing is created when the hold is refused.
func (s *BookingService) ReserveBooking(ctx context.Context, req ReserveBookingRequest) (*domain.Booking, error) {
	if err := s.validateReserve(req); err != nil {
		return nil, err
	}

	schedule, err := s.loadSchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !schedule.IsBookable(now) {
		return nil, domain.ErrScheduleNotBookable
	}

	tier, err := s.loadPriceTier(ctx, schedule.ID, req.PriceTierID)
	if err != nil {
		return nil, err
	}

	seats := len(req.Passengers)
	hold, err := s.locks.AcquireForSchedule(ctx, schedule, req.UserID, seats, now)
	if err != nil {
		return nil, err
	}

	bookingID := uuid.New()
	items := make([]domain.BookingItem, 0, seats)
	for i, p := range req.Passengers {
		items = append(items, domain.BookingItem{
			ID:             uuid.New(),
			BookingID:      bookingID,
			SeatIndex:      i + 1,
			FullName:       strings.TrimSpace(p.FullName),
			DocumentNumber: strings.TrimSpace(p.DocumentNumber),
			UnitAmount:     tier.PerSeatAmount,
		})
	}

	booking := &domain.Booking{
		ID:                 bookingID,
		ReferenceCode:      domain.NewReferenceCode(bookingID),
		UserID:             req.UserID,
		ScheduleID:         schedule.ID,
		PriceTierID:        tier.ID,
		NumberOfPassengers: seats,
		TotalAmount:        tier.Total(seats),
		Currency:           tier.Currency,
		Status:             domain.BookingHeld,
		PaymentStatus:      domain.PaymentPending,
		HoldToken:          hold.Token,
		HoldExpiresAt:      hold.ExpiresAt,
		CreatedAt:          now,
		UpdatedAt:          now,
		Items:              items,
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	if err := s.bookings.CreateBooking(txCtx, booking); err != nil {
		s.rollbackHold(ctx, schedule.ID, req.UserID, hold.Token)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"schedule_id": schedule.ID,
		"seats":       seats,
	}).Info("booking reserved")

	s.afterWrite(ctx, booking, domain.EventBookingReserved, "")
	return booking, nil
}

// ConfirmPayment applies a payment provider callback. A successful payment
// confirms the booking exactly once; repeats report ErrAlreadyPaid without
// touching the seat count.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, outcome domain.PaymentOutcome) (*domain.Booking, error) {
	if !outcome.Valid() {
		return nil, domain.ValidationError{Field: "outcome", Msg: "must be succeeded or failed"}
	}

	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		booking, err := s.loadBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		if outcome == domain.OutcomeFailed {
			booking, err = s.failPayment(ctx, booking)
		} else {
			booking, err = s.confirm(ctx, booking)
		}

		if errors.Is(err, domain.ErrConcurrentUpdate) {
			s.log.WithField("booking_id", bookingID).WithField("attempt", attempt).Debug("booking changed underneath, retrying")
			continue
		}
		return booking, err
	}

	return nil, domain.ErrConcurrentUpdate
}

func (s *BookingService) failPayment(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	t, err := booking.FailTransition(s.now())
	if err != nil {
		return booking, err
	}

	if err := s.apply(ctx, booking, t); err != nil {
		return booking, err
	}

	s.rollbackHold(ctx, booking.ScheduleID, booking.UserID, booking.HoldToken)
	s.afterWrite(ctx, booking, domain.EventBookingCancelled, "payment_failed")
	return booking, nil
}

func (s *BookingService) confirm(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	now := s.now()

	t, err := booking.ConfirmTransition(now)
	switch {
	case errors.Is(err, domain.ErrAlreadyPaid):
		return booking, err
	case errors.Is(err, domain.ErrAlreadyCancelled):
		return s.refundLatePayment(ctx, booking)
	case err != nil:
		return booking, err
	}

	holder, token := booking.UserID, booking.HoldToken

	if booking.HoldExpired(now) {
		// The original hold may have been handed to someone else. Take a new
		// one under the booking's own id so live holds are counted again.
		schedule, err := s.loadSchedule(ctx, booking.ScheduleID)
		if err != nil {
			return booking, err
		}

		hold, err := s.locks.AcquireForSchedule(ctx, schedule, booking.ID, booking.NumberOfPassengers, now)
		switch {
		case errors.Is(err, domain.ErrCapacityExceeded):
			return s.reconcile(ctx, booking, "hold_expired_no_capacity")
		case errors.Is(err, domain.ErrConflictingHold):
			// left behind by an earlier attempt for this same booking
			holder, token = booking.ID, ""
		case err != nil:
			return booking, err
		default:
			holder, token = booking.ID, hold.Token
		}
	}

	err = s.apply(ctx, booking, t)
	switch {
	case errors.Is(err, domain.ErrHoldExpiredNoCapacity):
		s.rollbackHold(ctx, booking.ScheduleID, holder, token)
		return s.reconcile(ctx, booking, "capacity_guard")
	case err != nil:
		if holder == booking.ID {
			s.rollbackHold(ctx, booking.ScheduleID, holder, token)
		}
		return booking, err
	}

	if err := s.locks.Promote(ctx, booking.ScheduleID, holder, token); err != nil {
		s.log.WithError(err).WithField("booking_id", booking.ID).Warn("failed to promote seat hold, it will lapse on its own")
	}

	s.log.WithField("booking_id", booking.ID).Info("booking confirmed")
	s.afterWrite(ctx, booking, domain.EventBookingConfirmed, "")
	return booking, nil
}

// reconcile cancels a held booking whose payment succeeded but whose seats
// could not be secured, and queues the refund.
func (s *BookingService) reconcile(ctx context.Context, booking *domain.Booking, reason string) (*domain.Booking, error) {
	t, err := booking.ReconcileTransition(s.now())
	if err != nil {
		return booking, err
	}

	if err := s.apply(ctx, booking, t); err != nil {
		return booking, err
	}

	metrics.TrackReconciliationAnomaly(reason)
	s.log.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"schedule_id": booking.ScheduleID,
		"reason":      reason,
	}).Error("payment captured without seats, refund queued")

	s.afterWrite(ctx, booking, domain.EventReconciliationFailed, reason)
	return booking, domain.ErrHoldExpiredNoCapacity
}

func (s *BookingService) refundLatePayment(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	t, err := booking.LateRefundTransition(s.now())
	if err != nil {
		return booking, domain.ErrAlreadyCancelled
	}

	if err := s.apply(ctx, booking, t); err != nil {
		return booking, err
	}

	metrics.TrackReconciliationAnomaly("paid_after_cancel")
	s.log.WithField("booking_id", booking.ID).Warn("payment received for cancelled booking, refund queued")

	s.afterWrite(ctx, booking, domain.EventRefundRequested, "paid_after_cancel")
	return booking, domain.ErrAlreadyCancelled
}

// CancelBooking cancels a held or confirmed booking on behalf of its owner or
// an admin. Confirmed seats go back to the schedule and paid money is queued
// for refund. Nothing can be cancelled once the trip has started.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, by Requester) (*domain.Booking, error) {
	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		booking, err := s.loadBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		if !by.owns(booking) {
			return nil, domain.ErrUnauthorized
		}

		now := s.now()
		t, err := booking.CancelTransition(now)
		if err != nil {
			return booking, err
		}

		schedule, err := s.loadSchedule(ctx, booking.ScheduleID)
		if err != nil {
			return nil, err
		}

		if schedule.HasStarted(now) {
			return booking, domain.ErrTripStarted
		}

		err = s.apply(ctx, booking, t)
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			continue
		}
		if err != nil {
			return booking, err
		}

		if t.FromStatus == domain.BookingHeld {
			s.rollbackHold(ctx, booking.ScheduleID, booking.UserID, booking.HoldToken)
		}

		s.log.WithFields(logrus.Fields{
			"booking_id":   booking.ID,
			"seats_freed":  -t.SeatDelta,
			"by_admin":     by.Admin,
			"payment_next": t.ToPayment,
		}).Info("booking cancelled")

		s.afterWrite(ctx, booking, domain.EventBookingCancelled, "cancelled_by_user")
		if t.ToPayment == domain.PaymentRefundPending {
			s.publish(ctx, booking, domain.EventRefundRequested, "cancelled_by_user")
		}
		return booking, nil
	}

	return nil, domain.ErrConcurrentUpdate
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, by Requester) (*domain.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !by.owns(booking) {
		return nil, domain.ErrUnauthorized
	}

	return booking, nil
}

// RunBackgroundCleanup cancels held bookings whose hold has lapsed and whose
// payment never arrived, every SweepInterval until ctx is done.
func (s *BookingService) RunBackgroundCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.log.WithField("interval", s.cfg.SweepInterval).Info("expiry sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepExpiredHolds(ctx); err != nil {
				s.log.WithError(err).Warn("expiry sweep failed")
			}
		}
	}
}

// SweepExpiredHolds runs one pass of the expiry sweep and returns how many
// bookings it cancelled. A hold counts as abandoned only SweepGrace after it
// lapsed, so a payment that is still in flight can confirm it first.
func (s *BookingService) SweepExpiredHolds(ctx context.Context) (int, error) {
	now := s.now()

	readCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	expired, err := s.bookings.GetExpiredHolds(readCtx, now.Add(-s.cfg.SweepGrace), s.cfg.SweepBatch)
	cancel()
	if err != nil {
		return 0, err
	}

	if len(expired) == 0 {
		return 0, nil
	}

	s.log.WithField("count", len(expired)).Info("cleaning up expired holds")

	cancelled := 0
	for _, booking := range expired {
		t, err := booking.ExpireTransition(now)
		if err != nil {
			continue
		}

		err = s.apply(ctx, booking, t)
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			continue
		}
		if err != nil {
			s.log.WithError(err).WithField("booking_id", booking.ID).Warn("failed to expire booking")
			continue
		}

		cancelled++
		s.rollbackHold(ctx, booking.ScheduleID, booking.UserID, booking.HoldToken)
		s.afterWrite(ctx, booking, domain.EventBookingCancelled, "hold_expired")
	}

	return cancelled, nil
}

// Single reads run outside a transaction but still under TxTimeout.
func (s *BookingService) loadBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()
	return s.bookings.GetByID(readCtx, id)
}

func (s *BookingService) loadSchedule(ctx context.Context, id uuid.UUID) (*domain.TripSchedule, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()
	return s.schedules.GetByID(readCtx, id)
}

func (s *BookingService) loadPriceTier(ctx context.Context, scheduleID, tierID uuid.UUID) (*domain.PriceTier, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()
	return s.schedules.GetPriceTier(readCtx, scheduleID, tierID)
}

// apply commits t and mirrors it onto booking.
func (s *BookingService) apply(ctx context.Context, booking *domain.Booking, t domain.Transition) error {
	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	if err := s.bookings.ApplyTransition(txCtx, t); err != nil {
		return err
	}

	booking.Apply(t)
	metrics.TrackTransition(string(t.FromStatus), string(t.ToStatus))
	return nil
}

func (s *BookingService) rollbackHold(ctx context.Context, scheduleID, holderID uuid.UUID, token string) {
	if err := s.locks.Release(ctx, scheduleID, holderID, token); err != nil {
		s.log.WithError(err).WithField("schedule_id", scheduleID).Warn("failed to release seat hold, it will lapse on its own")
	}
}

func (s *BookingService) afterWrite(ctx context.Context, booking *domain.Booking, event domain.EventType, reason string) {
	if err := s.cache.InvalidateSchedule(ctx, booking.ScheduleID); err != nil {
		s.log.WithError(err).WithField("schedule_id", booking.ScheduleID).Warn("failed to invalidate schedule cache")
	}
	s.publish(ctx, booking, event, reason)
}

func (s *BookingService) publish(ctx context.Context, booking *domain.Booking, event domain.EventType, reason string) {
	e := domain.NewLifecycleEvent(event, booking, s.now())
	e.Reason = reason
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WithError(err).WithField("event", event).Warn("failed to publish lifecycle event")
	}
}
