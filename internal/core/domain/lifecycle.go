package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transition is a guarded booking state change. The store applies it only if
// the booking is still in the From state, and moves the schedule's durable
// counter by SeatDelta in the same transaction.
type Transition struct {
	BookingID   uuid.UUID
	ScheduleID  uuid.UUID
	FromStatus  BookingStatus
	FromPayment PaymentStatus
	ToStatus    BookingStatus
	ToPayment   PaymentStatus
	SeatDelta   int
	At          time.Time
}

func (b *Booking) transition(to BookingStatus, pay PaymentStatus, delta int, at time.Time) Transition {
	return Transition{
		BookingID:   b.ID,
		ScheduleID:  b.ScheduleID,
		FromStatus:  b.Status,
		FromPayment: b.PaymentStatus,
		ToStatus:    to,
		ToPayment:   pay,
		SeatDelta:   delta,
		At:          at,
	}
}

// ConfirmTransition moves a held booking to confirmed after a successful
// payment and claims its seats in the durable counter.
func (b *Booking) ConfirmTransition(at time.Time) (Transition, error) {
	switch {
	case b.PaymentStatus.IsPaid():
		return Transition{}, ErrAlreadyPaid
	case b.Status == BookingCancelled:
		return Transition{}, ErrAlreadyCancelled
	case b.Status == BookingHeld && b.PaymentStatus == PaymentPending:
		return b.transition(BookingConfirmed, PaymentSucceeded, b.NumberOfPassengers, at), nil
	}
	return Transition{}, ErrInvalidTransition
}

func (b *Booking) FailTransition(at time.Time) (Transition, error) {
	switch {
	case b.PaymentStatus.IsPaid():
		return Transition{}, ErrAlreadyPaid
	case b.Status == BookingCancelled:
		return Transition{}, ErrAlreadyCancelled
	case b.Status == BookingHeld:
		return b.transition(BookingCancelled, PaymentFailed, 0, at), nil
	}
	return Transition{}, ErrInvalidTransition
}

// CancelTransition releases a held or confirmed booking. A confirmed booking
// gives its seats back to the durable counter and queues a refund.
func (b *Booking) CancelTransition(at time.Time) (Transition, error) {
	switch b.Status {
	case BookingCancelled:
		return Transition{}, ErrAlreadyCancelled
	case BookingHeld:
		return b.transition(BookingCancelled, b.PaymentStatus, 0, at), nil
	case BookingConfirmed:
		pay := b.PaymentStatus
		if pay == PaymentSucceeded {
			pay = PaymentRefundPending
		}
		return b.transition(BookingCancelled, pay, -b.NumberOfPassengers, at), nil
	}
	return Transition{}, ErrInvalidTransition
}

// ReconcileTransition records a payment that succeeded after the hold had
// lapsed and no capacity was left: the money goes back to the customer.
func (b *Booking) ReconcileTransition(at time.Time) (Transition, error) {
	if b.Status != BookingHeld || b.PaymentStatus != PaymentPending {
		return Transition{}, ErrInvalidTransition
	}
	return b.transition(BookingCancelled, PaymentRefundPending, 0, at), nil
}

// LateRefundTransition flags a refund for money captured on a booking that
// had already been cancelled.
func (b *Booking) LateRefundTransition(at time.Time) (Transition, error) {
	if b.Status != BookingCancelled || b.PaymentStatus.IsPaid() {
		return Transition{}, ErrInvalidTransition
	}
	return b.transition(BookingCancelled, PaymentRefundPending, 0, at), nil
}

// ExpireTransition is the bookkeeping cancel applied by the expiry sweep.
func (b *Booking) ExpireTransition(at time.Time) (Transition, error) {
	if b.Status != BookingHeld || b.PaymentStatus != PaymentPending {
		return Transition{}, ErrInvalidTransition
	}
	return b.transition(BookingCancelled, PaymentPending, 0, at), nil
}

// Apply mirrors a committed transition onto the in-memory booking.
func (b *Booking) Apply(t Transition) {
	b.Status = t.ToStatus
	b.PaymentStatus = t.ToPayment
	b.UpdatedAt = t.At
	at := t.At
	switch t.ToStatus {
	case BookingConfirmed:
		b.ConfirmedAt = &at
	case BookingCancelled:
		if t.FromStatus != BookingCancelled {
			b.CancelledAt = &at
		}
	}
}
