package domain

import (
	"encoding/base32"
	"strings"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingHeld      BookingStatus = "held"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingHeld, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentSucceeded     PaymentStatus = "succeeded"
	PaymentFailed        PaymentStatus = "failed"
	PaymentRefundPending PaymentStatus = "refund_pending"
	PaymentRefunded      PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSucceeded, PaymentFailed, PaymentRefundPending, PaymentRefunded:
		return true
	}
	return false
}

// IsPaid reports whether money has been captured for the booking, whether or
// not it has since been queued for refund.
func (s PaymentStatus) IsPaid() bool {
	return s == PaymentSucceeded || s == PaymentRefundPending || s == PaymentRefunded
}

type PaymentOutcome string

const (
	OutcomeSucceeded PaymentOutcome = "succeeded"
	OutcomeFailed    PaymentOutcome = "failed"
)

func (o PaymentOutcome) Valid() bool {
	return o == OutcomeSucceeded || o == OutcomeFailed
}

type Booking struct {
	ID                 uuid.UUID
	ReferenceCode      string
	UserID             uuid.UUID
	ScheduleID         uuid.UUID
	PriceTierID        uuid.UUID
	NumberOfPassengers int
	TotalAmount        int64
	Currency           string
	Status             BookingStatus
	PaymentStatus      PaymentStatus
	HoldToken          string
	HoldExpiresAt      time.Time
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Items              []BookingItem
}

// HoldExpired reports whether the seat hold backing a held booking has lapsed.
func (b *Booking) HoldExpired(now time.Time) bool {
	return !now.Before(b.HoldExpiresAt)
}

// BookingItem is one seat of a booking together with the passenger occupying it.
type BookingItem struct {
	ID             uuid.UUID
	BookingID      uuid.UUID
	SeatIndex      int
	FullName       string
	DocumentNumber string
	UnitAmount     int64
}

type Passenger struct {
	FullName       string `json:"full_name" binding:"required,min=1,max=200"`
	DocumentNumber string `json:"document_number" binding:"max=64"`
}

var referenceEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewReferenceCode derives a short customer-facing code from a booking id.
func NewReferenceCode(id uuid.UUID) string {
	return "BK-" + strings.ToUpper(referenceEncoding.EncodeToString(id[:5]))
}
