package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/boat_booking/internal/core/domain"
)

type ScheduleRepository interface {
	GetByID(ctx context.Context, scheduleID uuid.UUID) (*domain.TripSchedule, error)
	GetPriceTier(ctx context.Context, scheduleID, tierID uuid.UUID) (*domain.PriceTier, error)
	// CreateIfNoOverlap inserts the schedule and its price tiers unless the
	// vessel already has a non-cancelled schedule overlapping [StartsAt, EndsAt).
	CreateIfNoOverlap(ctx context.Context, schedule *domain.TripSchedule) error
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	// ApplyTransition commits t atomically. It returns ErrConcurrentUpdate when
	// the booking is no longer in t's From state and ErrHoldExpiredNoCapacity
	// when a positive SeatDelta would push bookedSeats past capacity.
	ApplyTransition(ctx context.Context, t domain.Transition) error
	GetExpiredHolds(ctx context.Context, before time.Time, limit int) ([]*domain.Booking, error)
}

// HoldRequest carries everything the lock store needs to admit a hold
// atomically against the durable counter read just before.
type HoldRequest struct {
	ScheduleID uuid.UUID
	HolderID   uuid.UUID
	Seats      int
	Durable    int
	Capacity   int
	Token      string
	Now        time.Time
	TTL        time.Duration
}

type SeatLockStore interface {
	// Acquire returns a zero rejection and the hold on success.
	Acquire(ctx context.Context, req HoldRequest) (domain.SeatHold, domain.HoldRejection, error)
	Release(ctx context.Context, scheduleID, holderID uuid.UUID, token string) (bool, error)
	// Promote shortens a hold so that it expires no later than deadline.
	Promote(ctx context.Context, scheduleID, holderID uuid.UUID, token string, deadline time.Time) (bool, error)
	LiveSeats(ctx context.Context, scheduleID uuid.UUID, now time.Time) (int, error)
}

type CacheInvalidator interface {
	InvalidateSchedule(ctx context.Context, scheduleID uuid.UUID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.LifecycleEvent) error
}
