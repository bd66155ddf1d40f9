package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingReserved      EventType = "booking.reserved"
	EventBookingConfirmed     EventType = "booking.confirmed"
	EventBookingCancelled     EventType = "booking.cancelled"
	EventRefundRequested      EventType = "refund.requested"
	EventReconciliationFailed EventType = "reconciliation.failed"
)

// LifecycleEvent is published after a booking transition commits.
type LifecycleEvent struct {
	Type          EventType     `json:"type"`
	BookingID     uuid.UUID     `json:"booking_id"`
	ScheduleID    uuid.UUID     `json:"schedule_id"`
	UserID        uuid.UUID     `json:"user_id"`
	Seats         int           `json:"seats"`
	TotalAmount   int64         `json:"total_amount"`
	Currency      string        `json:"currency"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Reason        string        `json:"reason,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

func NewLifecycleEvent(t EventType, b *Booking, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		Type:          t,
		BookingID:     b.ID,
		ScheduleID:    b.ScheduleID,
		UserID:        b.UserID,
		Seats:         b.NumberOfPassengers,
		TotalAmount:   b.TotalAmount,
		Currency:      b.Currency,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		OccurredAt:    at,
	}
}
