package domain

import (
	"time"

	"github.com/google/uuid"
)

// SeatHold is a provisional claim on seats stored only in the lock store.
type SeatHold struct {
	ScheduleID uuid.UUID
	HolderID   uuid.UUID
	Seats      int
	Token      string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

func (h SeatHold) Live(now time.Time) bool {
	return now.Before(h.ExpiresAt)
}

// HoldRejection is the lock store's reason for refusing a hold.
type HoldRejection string

const (
	RejectInsufficientCapacity HoldRejection = "insufficient_capacity"
	RejectConflictingHold      HoldRejection = "conflicting_hold"
)
