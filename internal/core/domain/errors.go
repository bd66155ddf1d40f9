package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCapacityExceeded      = errors.New("capacity_exceeded")
	ErrConflictingHold       = errors.New("conflicting_hold")
	ErrScheduleNotBookable   = errors.New("schedule_not_bookable")
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrPriceTierNotFound     = errors.New("price tier not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrAlreadyPaid           = errors.New("already_paid")
	ErrAlreadyCancelled      = errors.New("already_cancelled")
	ErrTripStarted           = errors.New("trip_started")
	ErrHoldExpiredNoCapacity = errors.New("hold_expired_no_capacity")
	ErrSchedulingConflict    = errors.New("scheduling_conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
	ErrConcurrentUpdate      = errors.New("concurrent update detected")
)

// InfraError marks a failure of the lock store or the database. Callers retry
// these with backoff; they never mean "no seats".
type InfraError struct {
	Op  string
	Err error
}

func (e *InfraError) Error() string {
	if e.Err == nil {
		return e.Op + ": infrastructure failure"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfraError) Unwrap() error { return e.Err }

func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	var infra *InfraError
	if errors.As(err, &infra) {
		return err
	}
	return &InfraError{Op: op, Err: err}
}

func IsInfrastructure(err error) bool {
	var target *InfraError
	return errors.As(err, &target)
}

// ValidationError names the offending field of a rejected request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }
