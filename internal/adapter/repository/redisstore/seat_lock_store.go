package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/ports"
)

type SeatLockStore struct {
	client redis.Scripter
}

func NewSeatLockStore(client redis.Scripter) *SeatLockStore {
	return &SeatLockStore{client: client}
}

func holdsKey(scheduleID uuid.UUID) string {
	return fmt.Sprintf("seathold:{%s}:holds", scheduleID)
}

func expiryKey(scheduleID uuid.UUID) string {
	return fmt.Sprintf("seathold:{%s}:expiry", scheduleID)
}

func keys(scheduleID uuid.UUID) []string {
	return []string{holdsKey(scheduleID), expiryKey(scheduleID)}
}

func (s *SeatLockStore) Acquire(ctx context.Context, req ports.HoldRequest) (domain.SeatHold, domain.HoldRejection, error) {
	res, err := acquireScript.Run(ctx, s.client, keys(req.ScheduleID),
		req.Now.UnixMilli(),
		req.TTL.Milliseconds(),
		req.HolderID.String(),
		req.Seats,
		req.Token,
		req.Durable,
		req.Capacity,
	).Slice()
	if err != nil {
		return domain.SeatHold{}, "", fmt.Errorf("acquire script: %w", err)
	}
	if len(res) != 3 {
		return domain.SeatHold{}, "", fmt.Errorf("acquire script: unexpected reply %v", res)
	}

	ok, _ := res[0].(int64)
	if ok != 1 {
		reason, _ := res[1].(string)
		return domain.SeatHold{}, domain.HoldRejection(reason), nil
	}

	token, _ := res[1].(string)
	expiresMs, _ := res[2].(int64)

	return domain.SeatHold{
		ScheduleID: req.ScheduleID,
		HolderID:   req.HolderID,
		Seats:      req.Seats,
		Token:      token,
		CreatedAt:  req.Now,
		ExpiresAt:  time.UnixMilli(expiresMs),
	}, "", nil
}

func (s *SeatLockStore) Release(ctx context.Context, scheduleID, holderID uuid.UUID, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, s.client, keys(scheduleID), holderID.String(), token).Int()
	if err != nil {
		return false, fmt.Errorf("release script: %w", err)
	}
	return n == 1, nil
}

func (s *SeatLockStore) Promote(ctx context.Context, scheduleID, holderID uuid.UUID, token string, deadline time.Time) (bool, error) {
	n, err := promoteScript.Run(ctx, s.client, keys(scheduleID), holderID.String(), token, deadline.UnixMilli()).Int()
	if err != nil {
		return false, fmt.Errorf("promote script: %w", err)
	}
	return n == 1, nil
}

func (s *SeatLockStore) LiveSeats(ctx context.Context, scheduleID uuid.UUID, now time.Time) (int, error) {
	n, err := liveSeatsScript.Run(ctx, s.client, keys(scheduleID), now.UnixMilli()).Int()
	if err != nil {
		return 0, fmt.Errorf("live seats script: %w", err)
	}
	return n, nil
}
