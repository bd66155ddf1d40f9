package redisstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CacheInvalidator bumps the version counter the read-side cache keys its
// entries on and drops the cached seat map for the schedule.
type CacheInvalidator struct {
	client redis.Cmdable
}

func NewCacheInvalidator(client redis.Cmdable) *CacheInvalidator {
	return &CacheInvalidator{client: client}
}

func ScheduleVersionKey(scheduleID uuid.UUID) string {
	return fmt.Sprintf("cache:version:schedule:%s", scheduleID)
}

func SeatsCacheKey(scheduleID uuid.UUID) string {
	return fmt.Sprintf("seats:%s", scheduleID)
}

func (c *CacheInvalidator) InvalidateSchedule(ctx context.Context, scheduleID uuid.UUID) error {
	if err := c.client.Incr(ctx, ScheduleVersionKey(scheduleID)).Err(); err != nil {
		return fmt.Errorf("bump schedule cache version: %w", err)
	}
	if err := c.client.Del(ctx, SeatsCacheKey(scheduleID)).Err(); err != nil {
		return fmt.Errorf("delete seats cache: %w", err)
	}
	return nil
}
