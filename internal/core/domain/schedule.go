package domain

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleCancelled ScheduleStatus = "cancelled"
	ScheduleCompleted ScheduleStatus = "completed"
)

func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleScheduled, ScheduleCancelled, ScheduleCompleted:
		return true
	}
	return false
}

// TripSchedule is one sailing of a vessel. BookedSeats counts confirmed seats
// only; provisional holds live in the lock store.
type TripSchedule struct {
	ID          uuid.UUID
	VesselID    uuid.UUID
	StartsAt    time.Time
	EndsAt      time.Time
	Capacity    int
	BookedSeats int
	Status      ScheduleStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PriceTiers  []PriceTier
}

// IsBookable reports whether new seats may be sold for the sailing at now.
func (s *TripSchedule) IsBookable(now time.Time) bool {
	return s.Status == ScheduleScheduled && now.Before(s.StartsAt)
}

func (s *TripSchedule) HasStarted(now time.Time) bool {
	return !now.Before(s.StartsAt)
}

// Overlaps reports whether the half-open windows [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

type PriceTier struct {
	ID            uuid.UUID
	ScheduleID    uuid.UUID
	Name          string
	PerSeatAmount int64
	Currency      string
}

// Total returns the booking amount for seats passengers in minor units.
func (p PriceTier) Total(seats int) int64 {
	return p.PerSeatAmount * int64(seats)
}
